package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schoolcms/schoolcms/internal/model"
)

const adminColumns = `id, username, password_hash, name, email, created_at, updated_at`

// CreateAdmin inserts a new administrator. PasswordHash must already be set.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	t := now()
	admin.CreatedAt = t
	admin.UpdatedAt = t

	id, err := s.insert(ctx, `INSERT INTO admins (username, password_hash, name, email, created_at, updated_at)
		VALUES (:username, :password_hash, :name, :email, :created_at, :updated_at)`, admin)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin %q: %w", admin.Username, ErrDuplicate)
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = id
	return nil
}

// FindAdminByUsername looks up an administrator by exact username.
func (s *Store) FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	err := s.db.GetContext(ctx, &a, s.db.Rebind("SELECT "+adminColumns+" FROM admins WHERE username = ?"), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by username: %w", err)
	}
	return &a, nil
}

// FindAdminByID looks up an administrator by id.
func (s *Store) FindAdminByID(ctx context.Context, id int64) (*model.Admin, error) {
	var a model.Admin
	err := s.db.GetContext(ctx, &a, s.db.Rebind("SELECT "+adminColumns+" FROM admins WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by id: %w", err)
	}
	return &a, nil
}

// UpdateAdminPasswordHash replaces the stored hash for one administrator in a
// single statement.
func (s *Store) UpdateAdminPasswordHash(ctx context.Context, id int64, hash string) error {
	err := s.execAffecting(ctx, "UPDATE admins SET password_hash = ?, updated_at = ? WHERE id = ?", hash, now(), id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update admin password: %w", err)
	}
	return err
}

// ListAdmins returns all administrators ordered by id.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := s.db.SelectContext(ctx, &admins, "SELECT "+adminColumns+" FROM admins ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// CountAdmins returns the number of administrators.
func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM admins"); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
