package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/openrundb/leaderboard-api/internal/apperror"
	"github.com/openrundb/leaderboard-api/internal/model"
	"github.com/openrundb/leaderboard-api/internal/repository"
)

const MaxNameLength = 100

// slugPattern is the accepted URL slug form: lowercase alphanumerics
// separated by single hyphens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CatalogService handles leaderboard and category curation. Creation and
// deletion are administrator-only; reads are public.
type CatalogService struct {
	leaderboards repository.LeaderboardRepository
	categories   repository.CategoryRepository
	users        repository.UserRepository
	logger       *slog.Logger
}

func NewCatalogService(
	leaderboards repository.LeaderboardRepository,
	categories repository.CategoryRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		leaderboards: leaderboards,
		categories:   categories,
		users:        users,
		logger:       logger,
	}
}

// CreateLeaderboardRequest is the decoded curation payload.
type CreateLeaderboardRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CreateCategoryRequest is the decoded category curation payload.
type CreateCategoryRequest struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	RunType       string `json:"runType"`
	SortDirection string `json:"sortDirection"`
}

// requireAdmin resolves the caller and enforces the Administrator role.
func (s *CatalogService) requireAdmin(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("valid authentication required")
		}
		return nil, fmt.Errorf("service/catalog: resolving user %s: %w", userID, err)
	}
	if user.Role != model.RoleAdministrator {
		return nil, apperror.Forbidden("administrator role required")
	}
	return user, nil
}

func validateNameAndSlug(name, slug string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or fewer", MaxNameLength))
	}
	if !slugPattern.MatchString(slug) {
		return apperror.ValidationFailed("slug",
			"slug must be lowercase alphanumerics separated by hyphens")
	}
	return nil
}

// CreateLeaderboard creates a leaderboard on behalf of an administrator.
func (s *CatalogService) CreateLeaderboard(ctx context.Context, userID string, req CreateLeaderboardRequest) (*model.Leaderboard, error) {
	admin, err := s.requireAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := validateNameAndSlug(req.Name, req.Slug); err != nil {
		return nil, err
	}

	lb := &model.Leaderboard{
		Name: strings.TrimSpace(req.Name),
		Slug: req.Slug,
	}
	if err := s.leaderboards.CreateLeaderboard(ctx, lb); err != nil {
		return nil, err
	}

	s.logger.Info("leaderboard created",
		slog.String("leaderboardID", lb.ID),
		slog.String("slug", lb.Slug),
		slog.String("adminID", admin.ID),
	)
	return lb, nil
}

// GetLeaderboard returns a leaderboard together with its live categories.
func (s *CatalogService) GetLeaderboard(ctx context.Context, id string) (*model.Leaderboard, []model.Category, error) {
	lb, err := s.leaderboards.GetLeaderboardByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	categories, err := s.categories.ListCategoriesForLeaderboard(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("service/catalog: listing categories for %s: %w", id, err)
	}
	return lb, categories, nil
}

// ListLeaderboards returns a page of leaderboards.
func (s *CatalogService) ListLeaderboards(ctx context.Context, opts repository.ListOptions) ([]model.Leaderboard, error) {
	if opts.Limit < 0 {
		return nil, apperror.Unprocessable("limit", "limit must not be negative")
	}
	if opts.Offset < 0 {
		return nil, apperror.Unprocessable("offset", "offset must not be negative")
	}
	return s.leaderboards.ListLeaderboards(ctx, opts)
}

// CreateCategory creates a category under a leaderboard on behalf of an
// administrator.
func (s *CatalogService) CreateCategory(ctx context.Context, userID, leaderboardID string, req CreateCategoryRequest) (*model.Category, error) {
	admin, err := s.requireAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := validateNameAndSlug(req.Name, req.Slug); err != nil {
		return nil, err
	}

	runType, err := model.ParseRunType(req.RunType)
	if err != nil {
		return nil, apperror.ValidationFailed("runType", "runType must be \"time\" or \"score\"")
	}
	sortDirection, err := model.ParseSortDirection(req.SortDirection)
	if err != nil {
		return nil, apperror.ValidationFailed("sortDirection", "sortDirection must be \"asc\" or \"desc\"")
	}

	if _, err := s.leaderboards.GetLeaderboardByID(ctx, leaderboardID); err != nil {
		return nil, err
	}

	category := &model.Category{
		LeaderboardID: leaderboardID,
		Name:          strings.TrimSpace(req.Name),
		Slug:          req.Slug,
		RunType:       runType,
		SortDirection: sortDirection,
	}
	if err := s.categories.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		slog.String("categoryID", category.ID),
		slog.String("leaderboardID", leaderboardID),
		slog.String("adminID", admin.ID),
	)
	return category, nil
}

// GetCategory returns a category, soft-deleted or not. Retired categories
// stay visible so their runs remain browsable.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return s.categories.GetCategoryByID(ctx, id)
}

// DeleteCategory soft-deletes a category on behalf of an administrator.
func (s *CatalogService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	admin, err := s.requireAdmin(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.categories.SoftDeleteCategory(ctx, categoryID); err != nil {
		return err
	}

	s.logger.Info("category deleted",
		slog.String("categoryID", categoryID),
		slog.String("adminID", admin.ID),
	)
	return nil
}
