package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// WatchedRepository implémente ports.WatchedRepository sur la table
// watched_videos. Monotone: on insère, on ne supprime jamais.
type WatchedRepository struct {
	db *sql.DB
}

func NewWatchedRepository(db *sql.DB) *WatchedRepository {
	return &WatchedRepository{db: db}
}

func (r *WatchedRepository) MarkWatched(ctx context.Context, courseID, path string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO watched_videos(course_id, video_path, watched_at)
		VALUES(?, ?, ?)
		ON CONFLICT(course_id, video_path) DO NOTHING
	`, courseID, path, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *WatchedRepository) IsWatched(ctx context.Context, courseID, path string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM watched_videos WHERE course_id = ? AND video_path = ?`, courseID, path).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *WatchedRepository) Watched(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT video_path FROM watched_videos WHERE course_id = ? ORDER BY watched_at, video_path`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *WatchedRepository) WatchedCount(ctx context.Context, courseID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM watched_videos WHERE course_id = ?`, courseID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
