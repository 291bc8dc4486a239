package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/openrundb/leaderboard-api/internal/apperror"
	"github.com/openrundb/leaderboard-api/internal/auth"
	"github.com/openrundb/leaderboard-api/internal/model"
	"github.com/openrundb/leaderboard-api/internal/repository"
	"github.com/openrundb/leaderboard-api/internal/service"
)

// RunHandler serves run submission and retrieval.
type RunHandler struct {
	runs   *service.RunService
	logger *slog.Logger
}

func NewRunHandler(runs *service.RunService, logger *slog.Logger) *RunHandler {
	return &RunHandler{runs: runs, logger: logger}
}

// runListResponse is the paginated listing body.
type runListResponse struct {
	Data   []model.RunView `json:"data"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// HandleGet serves GET /api/runs/{id}. Public; soft-deleted and unknown runs
// both 404.
func (h *RunHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	run, category, err := h.runs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewRunView(run, category))
}

// HandleGetCategory serves GET /api/runs/{id}/category.
func (h *RunHandler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.runs.GetCategoryForRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HandleCreate serves POST /api/categories/{id}/runs. Requires
// authentication; answers 201 with a Location header for the new run.
func (h *RunHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req service.CreateRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	run, category, err := h.runs.Create(r.Context(), userID, r.PathValue("id"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/runs/%s", run.ID))
	writeJSON(w, http.StatusCreated, model.NewRunView(run, category))
}

// HandleList serves GET /api/categories/{id}/runs with limit, offset, and
// includeDeleted query parameters.
func (h *RunHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := parseRunListOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.runs.ListForCategory(r.Context(), r.PathValue("id"), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, runListResponse{
		Data:   page.Views(),
		Total:  page.Total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// parseRunListOptions reads the pagination query parameters. Values that are
// not integers are Unprocessable; range checks live in the service.
func parseRunListOptions(r *http.Request) (repository.RunListOptions, error) {
	var opts repository.RunListOptions
	query := r.URL.Query()

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return opts, apperror.Unprocessable("limit", "limit must be an integer")
		}
		opts.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return opts, apperror.Unprocessable("offset", "offset must be an integer")
		}
		opts.Offset = offset
	}
	if raw := query.Get("includeDeleted"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, apperror.Unprocessable("includeDeleted", "includeDeleted must be a boolean")
		}
		opts.IncludeDeleted = include
	}

	return opts, nil
}
