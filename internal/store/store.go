package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Options selects and tunes the backing database.
type Options struct {
	// Driver is one of sqlite (default), mysql or postgres.
	Driver string
	// DSN is the connection string. For sqlite it is a file path; empty
	// opens a private in-memory database.
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is the record store for administrators, the activity log and the
// site content. All queries are parameterized.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

// Open connects to the configured database and applies migrations.
func Open(opts Options) (*Store, error) {
	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}

	dsn := opts.DSN
	switch d.name {
	case "sqlite":
		if dsn == "" {
			dsn = ":memory:"
		} else if !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	case "mysql":
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Connect(d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Driver, err)
	}

	if d.name == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the canonical driver name in use.
func (s *Store) Driver() string {
	return s.dialect.name
}

// insert runs a named INSERT and returns the new row id, using RETURNING on
// databases without LastInsertId support.
func (s *Store) insert(ctx context.Context, query string, arg interface{}) (int64, error) {
	if s.dialect.returning {
		q, args, err := sqlx.Named(query+" RETURNING id", arg)
		if err != nil {
			return 0, err
		}
		var id int64
		if err := s.db.QueryRowxContext(ctx, s.db.Rebind(q), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := s.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// execAffecting runs a statement that must touch at least one row, mapping
// zero affected rows to ErrNotFound.
func (s *Store) execAffecting(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// namedExecAffecting is execAffecting for named queries.
func (s *Store) namedExecAffecting(ctx context.Context, query string, arg interface{}) error {
	res, err := s.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// offset converts a 1-based page into a row offset.
func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// now returns the current time at the precision every supported database
// can round-trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
