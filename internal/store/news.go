package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schoolcms/schoolcms/internal/model"
)

const newsColumns = `id, title, content, image_url, created_at, updated_at`

// ListNews returns one page of news articles, newest first.
func (s *Store) ListNews(ctx context.Context, page, limit int) ([]model.News, error) {
	news := []model.News{}
	err := s.db.SelectContext(ctx, &news, s.db.Rebind("SELECT "+newsColumns+
		" FROM news ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"), limit, offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	return news, nil
}

// CountNews returns the total number of news articles.
func (s *Store) CountNews(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM news"); err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return n, nil
}

// GetNews returns a single article by id.
func (s *Store) GetNews(ctx context.Context, id int64) (*model.News, error) {
	var n model.News
	err := s.db.GetContext(ctx, &n, s.db.Rebind("SELECT "+newsColumns+" FROM news WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get news: %w", err)
	}
	return &n, nil
}

// CreateNews inserts an article and sets its id and timestamps.
func (s *Store) CreateNews(ctx context.Context, n *model.News) error {
	t := now()
	n.CreatedAt = t
	n.UpdatedAt = t
	id, err := s.insert(ctx, `INSERT INTO news (title, content, image_url, created_at, updated_at)
		VALUES (:title, :content, :image_url, :created_at, :updated_at)`, n)
	if err != nil {
		return fmt.Errorf("insert news: %w", err)
	}
	n.ID = id
	return nil
}

// UpdateNews overwrites the editable fields of an existing article.
func (s *Store) UpdateNews(ctx context.Context, n *model.News) error {
	n.UpdatedAt = now()
	err := s.namedExecAffecting(ctx, `UPDATE news SET title = :title, content = :content,
		image_url = :image_url, updated_at = :updated_at WHERE id = :id`, n)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("update news: %w", err)
	}
	return err
}

// DeleteNews removes an article.
func (s *Store) DeleteNews(ctx context.Context, id int64) error {
	err := s.execAffecting(ctx, "DELETE FROM news WHERE id = ?", id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete news: %w", err)
	}
	return err
}
