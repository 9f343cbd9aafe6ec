package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/schoolcms/schoolcms/internal/model"
)

const settingColumns = `id, setting_key, value, description, created_at, updated_at`

// ListSettings returns every site setting ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]model.Setting, error) {
	settings := []model.Setting{}
	if err := s.db.SelectContext(ctx, &settings, "SELECT "+settingColumns+" FROM settings ORDER BY setting_key"); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// GetSetting returns one setting by key.
func (s *Store) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	var st model.Setting
	err := s.db.GetContext(ctx, &st, s.db.Rebind("SELECT "+settingColumns+" FROM settings WHERE setting_key = ?"), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &st, nil
}

// SaveSettings upserts every key in values inside one transaction. Either all
// keys are written or none are.
func (s *Store) SaveSettings(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	t := now()
	update := tx.Rebind("UPDATE settings SET value = ?, updated_at = ? WHERE setting_key = ?")
	insert := tx.Rebind(`INSERT INTO settings (setting_key, value, description, created_at, updated_at)
		VALUES (?, ?, '', ?, ?)`)
	for _, k := range keys {
		res, err := tx.ExecContext(ctx, update, values[k], t, k)
		if err != nil {
			return fmt.Errorf("update setting %s: %w", k, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, insert, k, values[k], t, t); err != nil {
			return fmt.Errorf("insert setting %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}
