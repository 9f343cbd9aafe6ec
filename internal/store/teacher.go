package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schoolcms/schoolcms/internal/model"
)

const teacherColumns = `id, name, title, department, avatar_url, introduction, order_num, created_at`

// ListTeachers returns every teacher profile in display order.
func (s *Store) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	teachers := []model.Teacher{}
	if err := s.db.SelectContext(ctx, &teachers, "SELECT "+teacherColumns+" FROM teachers ORDER BY order_num, id"); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

func (s *Store) GetTeacher(ctx context.Context, id int64) (*model.Teacher, error) {
	var t model.Teacher
	err := s.db.GetContext(ctx, &t, s.db.Rebind("SELECT "+teacherColumns+" FROM teachers WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &t, nil
}

func (s *Store) CreateTeacher(ctx context.Context, t *model.Teacher) error {
	t.CreatedAt = now()
	id, err := s.insert(ctx, `INSERT INTO teachers (name, title, department, avatar_url, introduction, order_num, created_at)
		VALUES (:name, :title, :department, :avatar_url, :introduction, :order_num, :created_at)`, t)
	if err != nil {
		return fmt.Errorf("insert teacher: %w", err)
	}
	t.ID = id
	return nil
}

func (s *Store) UpdateTeacher(ctx context.Context, t *model.Teacher) error {
	err := s.namedExecAffecting(ctx, `UPDATE teachers SET name = :name, title = :title,
		department = :department, avatar_url = :avatar_url, introduction = :introduction,
		order_num = :order_num WHERE id = :id`, t)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update teacher: %w", err)
	}
	return err
}

func (s *Store) DeleteTeacher(ctx context.Context, id int64) error {
	err := s.execAffecting(ctx, "DELETE FROM teachers WHERE id = ?", id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return err
}
