package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schoolcms/schoolcms/internal/model"
)

const slideColumns = `id, title, image_url, link, order_num, created_at, updated_at`

// ListSlides returns every slide in display order.
func (s *Store) ListSlides(ctx context.Context) ([]model.Slide, error) {
	slides := []model.Slide{}
	if err := s.db.SelectContext(ctx, &slides, "SELECT "+slideColumns+" FROM slides ORDER BY order_num, id"); err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	return slides, nil
}

// GetSlide returns a single slide by id.
func (s *Store) GetSlide(ctx context.Context, id int64) (*model.Slide, error) {
	var sl model.Slide
	err := s.db.GetContext(ctx, &sl, s.db.Rebind("SELECT "+slideColumns+" FROM slides WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get slide: %w", err)
	}
	return &sl, nil
}

func (s *Store) CreateSlide(ctx context.Context, sl *model.Slide) error {
	t := now()
	sl.CreatedAt = t
	sl.UpdatedAt = t
	id, err := s.insert(ctx, `INSERT INTO slides (title, image_url, link, order_num, created_at, updated_at)
		VALUES (:title, :image_url, :link, :order_num, :created_at, :updated_at)`, sl)
	if err != nil {
		return fmt.Errorf("insert slide: %w", err)
	}
	sl.ID = id
	return nil
}

func (s *Store) UpdateSlide(ctx context.Context, sl *model.Slide) error {
	sl.UpdatedAt = now()
	err := s.namedExecAffecting(ctx, `UPDATE slides SET title = :title, image_url = :image_url,
		link = :link, order_num = :order_num, updated_at = :updated_at WHERE id = :id`, sl)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update slide: %w", err)
	}
	return err
}

func (s *Store) DeleteSlide(ctx context.Context, id int64) error {
	err := s.execAffecting(ctx, "DELETE FROM slides WHERE id = ?", id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete slide: %w", err)
	}
	return err
}
