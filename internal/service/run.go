// Package service contains the business logic layer: validation, privilege
// enforcement, and orchestration between repositories. Services return
// domain outcomes through the apperror taxonomy; they never see HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openrundb/leaderboard-api/internal/apperror"
	"github.com/openrundb/leaderboard-api/internal/model"
	"github.com/openrundb/leaderboard-api/internal/repository"
)

// RunService orchestrates run submission and retrieval.
//
// Soft-delete visibility is asymmetric on purpose, mirroring the original
// behaviour: Get never returns soft-deleted runs and offers no toggle, while
// ListForCategory takes an includeDeleted flag. Likewise a deleted category
// rejects new submissions but its historical runs stay listable.
type RunService struct {
	runs       repository.RunRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	logger     *slog.Logger
}

func NewRunService(
	runs repository.RunRepository,
	categories repository.CategoryRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *RunService {
	return &RunService{
		runs:       runs,
		categories: categories,
		users:      users,
		logger:     logger,
	}
}

// CreateRunRequest is the decoded submission payload. RunType selects which
// of Time and Score must be present; they are mutually exclusive.
type CreateRunRequest struct {
	RunType  string     `json:"runType"`
	PlayedOn model.Date `json:"playedOn"`
	Info     string     `json:"info"`
	Time     string     `json:"time,omitempty"`
	Score    *int64     `json:"score,omitempty"`
}

// RunPage is one window of a category's runs plus the filtered total.
type RunPage struct {
	Runs     []model.Run
	Category *model.Category
	Total    int
}

// Create validates and persists a run submission.
//
// Outcomes: Forbidden when the caller's role is neither Confirmed nor
// Administrator; NotFound when the category is missing ("category not
// found") or soft-deleted ("category is deleted"); Unprocessable when the
// payload does not match the category's run type or fails to parse. On
// success exactly one row is written; every failure path writes nothing.
func (s *RunService) Create(ctx context.Context, userID, categoryID string, req CreateRunRequest) (*model.Run, *model.Category, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.Unauthorized("valid authentication required")
		}
		return nil, nil, fmt.Errorf("service/run: resolving user %s: %w", userID, err)
	}
	if !user.Role.CanSubmitRuns() {
		return nil, nil, apperror.Forbidden("account must be confirmed to submit runs")
	}

	category, err := s.categories.GetCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.NotFoundMessage("category not found")
		}
		return nil, nil, fmt.Errorf("service/run: resolving category %s: %w", categoryID, err)
	}
	if category.Deleted() {
		return nil, nil, apperror.NotFoundMessage("category is deleted")
	}

	value, err := validateRunValue(category, req)
	if err != nil {
		return nil, nil, err
	}
	if req.PlayedOn.IsZero() {
		return nil, nil, apperror.Unprocessable("playedOn", "playedOn date is required")
	}

	run := &model.Run{
		CategoryID:  category.ID,
		UserID:      user.ID,
		Info:        req.Info, // "" when absent; the column default matches
		PlayedOn:    req.PlayedOn,
		TimeOrScore: value,
	}

	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("service/run: creating run: %w", err)
	}

	s.logger.Info("run created",
		slog.String("runID", run.ID),
		slog.String("categoryID", category.ID),
		slog.String("userID", user.ID),
	)

	return run, category, nil
}

// validateRunValue checks the payload against the category configuration and
// returns the normalized stored value: nanoseconds for timed categories, the
// raw score for scored ones.
func validateRunValue(category *model.Category, req CreateRunRequest) (int64, error) {
	runType, err := model.ParseRunType(req.RunType)
	if err != nil {
		return 0, apperror.Unprocessable("runType", "runType must be \"time\" or \"score\"")
	}
	if runType != category.RunType {
		return 0, apperror.Unprocessable("runType",
			fmt.Sprintf("category expects %s runs, got %s", category.RunType, runType))
	}

	switch runType {
	case model.RunTypeTime:
		if req.Score != nil {
			return 0, apperror.Unprocessable("score", "a timed run must not carry a score")
		}
		if req.Time == "" {
			return 0, apperror.Unprocessable("time", "a timed run requires a time")
		}
		d, err := model.ParseRunDuration(req.Time)
		if err != nil {
			return 0, apperror.Unprocessable("time", "time must be in HH:MM:SS.fff form")
		}
		return int64(d), nil

	default: // model.RunTypeScore
		if req.Time != "" {
			return 0, apperror.Unprocessable("time", "a scored run must not carry a time")
		}
		if req.Score == nil {
			return 0, apperror.Unprocessable("score", "a scored run requires a score")
		}
		if *req.Score < 0 {
			return 0, apperror.Unprocessable("score", "score must not be negative")
		}
		return *req.Score, nil
	}
}

// Get retrieves a run and its resolved category. Public; soft-deleted and
// unknown runs are indistinguishable (both NotFound).
func (s *RunService) Get(ctx context.Context, id string) (*model.Run, *model.Category, error) {
	run, err := s.runs.GetRunByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	category, err := s.categories.GetCategoryByID(ctx, run.CategoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("service/run: resolving category for run %s: %w", id, err)
	}

	return run, category, nil
}

// GetCategoryForRun resolves the category a run belongs to.
func (s *RunService) GetCategoryForRun(ctx context.Context, runID string) (*model.Category, error) {
	run, err := s.runs.GetRunByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.categories.GetCategoryByID(ctx, run.CategoryID)
}

// ListForCategory returns one page of a category's runs.
//
// The category must exist but may be soft-deleted: historical runs stay
// browsable after a category is retired. Negative pagination parameters are
// Unprocessable; an offset past the end yields an empty page with the true
// total.
func (s *RunService) ListForCategory(ctx context.Context, categoryID string, opts repository.RunListOptions) (*RunPage, error) {
	if opts.Limit < 0 {
		return nil, apperror.Unprocessable("limit", "limit must not be negative")
	}
	if opts.Offset < 0 {
		return nil, apperror.Unprocessable("offset", "offset must not be negative")
	}

	category, err := s.categories.GetCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("category not found")
		}
		return nil, fmt.Errorf("service/run: resolving category %s: %w", categoryID, err)
	}

	runs, total, err := s.runs.ListRunsForCategory(ctx, categoryID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/run: listing runs for category %s: %w", categoryID, err)
	}

	return &RunPage{Runs: runs, Category: category, Total: total}, nil
}

// Views maps the page to wire views using the page's single category.
func (p *RunPage) Views() []model.RunView {
	views := make([]model.RunView, 0, len(p.Runs))
	for i := range p.Runs {
		views = append(views, model.NewRunView(&p.Runs[i], p.Category))
	}
	return views
}
