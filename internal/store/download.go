package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schoolcms/schoolcms/internal/model"
)

const downloadColumns = `id, title, description, category, file_name, stored_name, file_type,
	file_size, download_count, upload_date`

// ListDownloads returns downloads newest first, optionally restricted to one
// category.
func (s *Store) ListDownloads(ctx context.Context, category string) ([]model.Download, error) {
	downloads := []model.Download{}
	query := "SELECT " + downloadColumns + " FROM downloads"
	var args []interface{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY upload_date DESC, id DESC"

	if err := s.db.SelectContext(ctx, &downloads, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	return downloads, nil
}

func (s *Store) GetDownload(ctx context.Context, id int64) (*model.Download, error) {
	var d model.Download
	err := s.db.GetContext(ctx, &d, s.db.Rebind("SELECT "+downloadColumns+" FROM downloads WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get download: %w", err)
	}
	return &d, nil
}

func (s *Store) CreateDownload(ctx context.Context, d *model.Download) error {
	d.UploadDate = now()
	d.DownloadCount = 0
	id, err := s.insert(ctx, `INSERT INTO downloads (title, description, category, file_name, stored_name,
			file_type, file_size, download_count, upload_date)
		VALUES (:title, :description, :category, :file_name, :stored_name,
			:file_type, :file_size, :download_count, :upload_date)`, d)
	if err != nil {
		return fmt.Errorf("insert download: %w", err)
	}
	d.ID = id
	return nil
}

// IncrementDownloadCount bumps the download counter of one file.
func (s *Store) IncrementDownloadCount(ctx context.Context, id int64) error {
	err := s.execAffecting(ctx, "UPDATE downloads SET download_count = download_count + 1 WHERE id = ?", id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("increment download count: %w", err)
	}
	return err
}

func (s *Store) DeleteDownload(ctx context.Context, id int64) error {
	err := s.execAffecting(ctx, "DELETE FROM downloads WHERE id = ?", id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete download: %w", err)
	}
	return err
}
