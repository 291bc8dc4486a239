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

var _ repository.CategoryRepository = (*DB)(nil)

// CreateCategory inserts a new category. A duplicate slug within the same
// leaderboard surfaces as a Conflict.
func (db *DB) CreateCategory(ctx context.Context, category *model.Category) error {
	category.ID = xid.New().String()
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (id, leaderboard_id, name, slug, run_type, sort_direction, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.LeaderboardID,
		category.Name,
		category.Slug,
		string(category.RunType),
		string(category.SortDirection),
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("category slug", category.Slug)
		}
		return fmt.Errorf("sqlite: creating category: %w", err)
	}

	return nil
}

// GetCategoryByID retrieves a category, soft-deleted or not. Callers decide
// whether DeletedAt matters for their operation.
func (db *DB) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, leaderboard_id, name, slug, run_type, sort_direction, created_at, updated_at, deleted_at
		 FROM categories
		 WHERE id = ?`,
		id,
	).Scan(
		&c.ID,
		&c.LeaderboardID,
		&c.Name,
		&c.Slug,
		&c.RunType,
		&c.SortDirection,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.DeletedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("sqlite: getting category %s: %w", id, err)
	}

	return &c, nil
}

// ListCategoriesForLeaderboard returns a leaderboard's non-deleted
// categories in creation order.
func (db *DB) ListCategoriesForLeaderboard(ctx context.Context, leaderboardID string) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, leaderboard_id, name, slug, run_type, sort_direction, created_at, updated_at, deleted_at
		 FROM categories
		 WHERE leaderboard_id = ? AND deleted_at IS NULL
		 ORDER BY id ASC`,
		leaderboardID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories for leaderboard %s: %w", leaderboardID, err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(
			&c.ID, &c.LeaderboardID, &c.Name, &c.Slug, &c.RunType,
			&c.SortDirection, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}

	return categories, nil
}

// SoftDeleteCategory marks a category deleted. Deleting an already-deleted
// or unknown category reports NotFound.
func (db *DB) SoftDeleteCategory(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE categories SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: soft-deleting category %s: %w", id, err)
	}
	return requireAffected(result, "category", id)
}
