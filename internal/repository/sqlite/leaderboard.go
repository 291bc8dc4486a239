package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/openrundb/leaderboard-api/internal/apperror"
	"github.com/openrundb/leaderboard-api/internal/model"
	"github.com/openrundb/leaderboard-api/internal/repository"
)

var _ repository.LeaderboardRepository = (*DB)(nil)

const (
	defaultLeaderboardPageSize = 20
	maxLeaderboardPageSize     = 100
)

// CreateLeaderboard inserts a new leaderboard. A duplicate slug surfaces as
// a Conflict.
func (db *DB) CreateLeaderboard(ctx context.Context, lb *model.Leaderboard) error {
	lb.ID = xid.New().String()
	now := time.Now().UTC()
	lb.CreatedAt = now
	lb.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO leaderboards (id, name, slug, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		lb.ID, lb.Name, lb.Slug, lb.CreatedAt, lb.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("leaderboard slug", lb.Slug)
		}
		return fmt.Errorf("sqlite: creating leaderboard: %w", err)
	}

	return nil
}

func (db *DB) GetLeaderboardByID(ctx context.Context, id string) (*model.Leaderboard, error) {
	var lb model.Leaderboard

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM leaderboards WHERE id = ?`,
		id,
	).Scan(&lb.ID, &lb.Name, &lb.Slug, &lb.CreatedAt, &lb.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("leaderboard", id)
		}
		return nil, fmt.Errorf("sqlite: getting leaderboard %s: %w", id, err)
	}

	return &lb, nil
}

// ListLeaderboards returns leaderboards in creation order.
func (db *DB) ListLeaderboards(ctx context.Context, opts repository.ListOptions) ([]model.Leaderboard, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLeaderboardPageSize
	}
	if limit > maxLeaderboardPageSize {
		limit = maxLeaderboardPageSize
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, slug, created_at, updated_at
		 FROM leaderboards
		 ORDER BY id ASC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing leaderboards: %w", err)
	}
	defer rows.Close()

	boards := make([]model.Leaderboard, 0, limit)
	for rows.Next() {
		var lb model.Leaderboard
		if err := rows.Scan(&lb.ID, &lb.Name, &lb.Slug, &lb.CreatedAt, &lb.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		boards = append(boards, lb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating leaderboards: %w", err)
	}

	return boards, nil
}
