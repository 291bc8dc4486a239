// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the real implementation;
// service tests provide in-memory mocks.
//
// Method names carry the entity (CreateRun, not Create) so that a single
// store type can satisfy every interface at once.
package repository

import (
	"context"

	"github.com/openrundb/leaderboard-api/internal/model"
)

// ListOptions is a zero-based pagination window. Limit and Offset must be
// validated (non-negative) before reaching the repository; implementations
// only apply defaults and caps.
type ListOptions struct {
	Limit  int
	Offset int
}

// RunListOptions extends pagination with the soft-delete toggle used by
// category run listings.
type RunListOptions struct {
	ListOptions
	IncludeDeleted bool
}

type LeaderboardRepository interface {
	CreateLeaderboard(ctx context.Context, lb *model.Leaderboard) error
	GetLeaderboardByID(ctx context.Context, id string) (*model.Leaderboard, error)
	ListLeaderboards(ctx context.Context, opts ListOptions) ([]model.Leaderboard, error)
}

// CategoryRepository reads and writes category records.
//
// GetCategoryByID returns soft-deleted categories too; callers inspect
// DeletedAt to decide whether deletion matters for their operation
// (run creation rejects deleted categories, run listing does not).
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	ListCategoriesForLeaderboard(ctx context.Context, leaderboardID string) ([]model.Category, error)
	SoftDeleteCategory(ctx context.Context, id string) error
}

// RunRepository reads and writes run records.
//
// GetRunByID excludes soft-deleted runs; the single-run lookup has no
// include-deleted toggle. ListRunsForCategory returns the requested window
// plus the total size of the filtered set.
type RunRepository interface {
	CreateRun(ctx context.Context, run *model.Run) error
	GetRunByID(ctx context.Context, id string) (*model.Run, error)
	ListRunsForCategory(ctx context.Context, categoryID string, opts RunListOptions) ([]model.Run, int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserRole(ctx context.Context, id string, role model.Role) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	// UpsertUserByGitHubID creates the user on first OAuth sign-in and
	// refreshes mutable profile fields on subsequent ones, keyed on GitHubID.
	UpsertUserByGitHubID(ctx context.Context, user *model.User) error
}

// AccountTokenRepository stores single-use emailed tokens for account
// confirmation and password recovery.
type AccountTokenRepository interface {
	CreateAccountToken(ctx context.Context, token *model.AccountToken) error
	GetAccountToken(ctx context.Context, token string) (*model.AccountToken, error)
	MarkAccountTokenUsed(ctx context.Context, token string) error
}
