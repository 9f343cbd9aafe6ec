package store

import (
	"context"
	"fmt"

	"github.com/schoolcms/schoolcms/internal/model"
)

// AppendActivity records an administrative action. actorID is nil for
// actions with no authenticated actor. The returned record carries the
// server-assigned id and timestamp.
func (s *Store) AppendActivity(ctx context.Context, typ, description string, actorID *int64) (*model.Activity, error) {
	a := &model.Activity{
		UserID:      actorID,
		Type:        typ,
		Description: description,
		CreatedAt:   now(),
	}
	id, err := s.insert(ctx, `INSERT INTO activities (user_id, type, description, created_at)
		VALUES (:user_id, :type, :description, :created_at)`, a)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	a.ID = id
	return a, nil
}

// ListActivities returns one page of the activity log, newest first.
func (s *Store) ListActivities(ctx context.Context, page, limit int) ([]model.Activity, error) {
	activities := []model.Activity{}
	err := s.db.SelectContext(ctx, &activities, s.db.Rebind(`SELECT id, user_id, type, description, created_at
		FROM activities ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`), limit, offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// CountActivities returns the total number of activity records.
func (s *Store) CountActivities(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM activities"); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return n, nil
}

// ClearActivities deletes every activity record and returns how many were
// removed.
func (s *Store) ClearActivities(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM activities")
	if err != nil {
		return 0, fmt.Errorf("clear activities: %w", err)
	}
	return res.RowsAffected()
}
