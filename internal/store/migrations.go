package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			id {{pk}},
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(100) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS activities (
			id {{pk}},
			user_id {{bigint}} NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT NOT NULL,
			created_at {{ts}} NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS news (
			id {{pk}},
			title VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			image_url VARCHAR(255) NOT NULL DEFAULT '',
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS slides (
			id {{pk}},
			title VARCHAR(255) NOT NULL DEFAULT '',
			image_url VARCHAR(255) NOT NULL,
			link VARCHAR(255) NOT NULL DEFAULT '',
			order_num INTEGER NOT NULL DEFAULT 0,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS teachers (
			id {{pk}},
			name VARCHAR(50) NOT NULL,
			title VARCHAR(100) NOT NULL DEFAULT '',
			department VARCHAR(50) NOT NULL DEFAULT '',
			avatar_url VARCHAR(255) NOT NULL DEFAULT '',
			introduction TEXT NOT NULL,
			order_num INTEGER NOT NULL DEFAULT 1,
			created_at {{ts}} NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS downloads (
			id {{pk}},
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			category VARCHAR(50) NOT NULL DEFAULT '',
			file_name VARCHAR(255) NOT NULL,
			stored_name VARCHAR(255) NOT NULL,
			file_type VARCHAR(100) NOT NULL DEFAULT '',
			file_size {{bigint}} NOT NULL DEFAULT 0,
			download_count {{bigint}} NOT NULL DEFAULT 0,
			upload_date {{ts}} NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			id {{pk}},
			setting_key VARCHAR(50) UNIQUE NOT NULL,
			value TEXT NOT NULL,
			description VARCHAR(255) NOT NULL DEFAULT '',
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,

		`CREATE INDEX {{ine}}idx_activities_created_at ON activities(created_at)`,
		`CREATE INDEX {{ine}}idx_news_created_at ON news(created_at)`,
		`CREATE INDEX {{ine}}idx_downloads_category ON downloads(category)`,
	}

	for _, m := range migrations {
		stmt := s.dialect.expand(m)
		if _, err := s.db.Exec(stmt); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; a rerun reports the
			// index as a duplicate key name, which is a no-op for us.
			if strings.Contains(strings.ToLower(err.Error()), "duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}
	return s.seedSettings(context.Background())
}

// defaultSettings are the site settings present on a fresh install.
var defaultSettings = []struct {
	key, value, description string
}{
	{"school_name", "Future Technology High School", "School name"},
	{"school_slogan", "Educating the engineers of tomorrow", "School slogan"},
	{"contact_email", "contact@example.com", "Contact email"},
	{"contact_phone", "123-456-7890", "Contact phone"},
	{"address", "1 Campus Road", "School address"},
	{"footer_text", "© School. All rights reserved.", "Footer text"},
}

// seedSettings inserts the default settings when the settings table is empty.
func (s *Store) seedSettings(ctx context.Context) error {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM settings"); err != nil {
		return fmt.Errorf("count settings: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	q := s.db.Rebind(`INSERT INTO settings (setting_key, value, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`)
	for _, d := range defaultSettings {
		if _, err := s.db.ExecContext(ctx, q, d.key, d.value, d.description, now, now); err != nil {
			return fmt.Errorf("seed setting %s: %w", d.key, err)
		}
	}
	return nil
}
