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

var _ repository.RunRepository = (*DB)(nil)

const (
	defaultRunPageSize = 20
	maxRunPageSize     = 100
)

// CreateRun inserts a new run. The ID (a fresh xid, URL-safe and time-sortable)
// and CreatedAt are assigned here and written back through the pointer.
func (db *DB) CreateRun(ctx context.Context, run *model.Run) error {
	run.ID = xid.New().String()
	run.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO runs (id, category_id, user_id, info, played_on, time_or_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CategoryID,
		run.UserID,
		run.Info,
		run.PlayedOn,
		run.TimeOrScore,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating run: %w", err)
	}

	return nil
}

// GetRunByID retrieves a single non-deleted run. Soft-deleted runs are invisible
// to this lookup; there is deliberately no include-deleted variant.
func (db *DB) GetRunByID(ctx context.Context, id string) (*model.Run, error) {
	var run model.Run

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, category_id, user_id, info, played_on, time_or_score, created_at, deleted_at
		 FROM runs
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(
		&run.ID,
		&run.CategoryID,
		&run.UserID,
		&run.Info,
		&run.PlayedOn,
		&run.TimeOrScore,
		&run.CreatedAt,
		&run.DeletedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("run", id)
		}
		return nil, fmt.Errorf("sqlite: getting run %s: %w", id, err)
	}

	return &run, nil
}

// ListRunsForCategory returns one page of a category's runs plus the total size
// of the filtered set. Ordering is played_on ascending with the id as
// tiebreak, which reproduces insertion order for same-day runs.
func (db *DB) ListRunsForCategory(ctx context.Context, categoryID string, opts repository.RunListOptions) ([]model.Run, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultRunPageSize
	}
	if limit > maxRunPageSize {
		limit = maxRunPageSize
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	filter := "AND deleted_at IS NULL"
	if opts.IncludeDeleted {
		filter = ""
	}

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE category_id = ? `+filter,
		categoryID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting runs for category %s: %w", categoryID, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, category_id, user_id, info, played_on, time_or_score, created_at, deleted_at
		 FROM runs
		 WHERE category_id = ? `+filter+`
		 ORDER BY played_on ASC, id ASC
		 LIMIT ? OFFSET ?`,
		categoryID,
		limit,
		offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing runs for category %s: %w", categoryID, err)
	}
	defer rows.Close()

	runs := make([]model.Run, 0, limit)
	for rows.Next() {
		var r model.Run
		if err := rows.Scan(
			&r.ID, &r.CategoryID, &r.UserID, &r.Info,
			&r.PlayedOn, &r.TimeOrScore, &r.CreatedAt, &r.DeletedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating runs: %w", err)
	}

	return runs, total, nil
}

// SoftDeleteRun marks a run deleted without removing the row. Not part of
// the public HTTP surface yet; used by tests and future moderation tooling.
func (db *DB) SoftDeleteRun(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: soft-deleting run %s: %w", id, err)
	}
	return requireAffected(result, "run", id)
}
