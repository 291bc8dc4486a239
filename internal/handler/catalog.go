package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/openrundb/leaderboard-api/internal/apperror"
	"github.com/openrundb/leaderboard-api/internal/auth"
	"github.com/openrundb/leaderboard-api/internal/model"
	"github.com/openrundb/leaderboard-api/internal/repository"
	"github.com/openrundb/leaderboard-api/internal/service"
)

// CatalogHandler serves leaderboard and category curation. Reads are public;
// writes go through the service's administrator check.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// leaderboardResponse is a leaderboard with its live categories attached.
type leaderboardResponse struct {
	model.Leaderboard
	Categories []model.Category `json:"categories"`
}

// HandleCreateLeaderboard serves POST /api/leaderboards.
func (h *CatalogHandler) HandleCreateLeaderboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req service.CreateLeaderboardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	lb, err := h.catalog.CreateLeaderboard(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lb)
}

// HandleListLeaderboards serves GET /api/leaderboards.
func (h *CatalogHandler) HandleListLeaderboards(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	leaderboards, err := h.catalog.ListLeaderboards(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if leaderboards == nil {
		leaderboards = []model.Leaderboard{}
	}
	writeJSON(w, http.StatusOK, leaderboards)
}

// HandleGetLeaderboard serves GET /api/leaderboards/{id}.
func (h *CatalogHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, categories, err := h.catalog.GetLeaderboard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Leaderboard: *lb, Categories: categories})
}

// HandleCreateCategory serves POST /api/leaderboards/{id}/categories.
func (h *CatalogHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req service.CreateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), userID, r.PathValue("id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// HandleGetCategory serves GET /api/categories/{id}. Soft-deleted categories
// stay readable so their runs remain browsable.
func (h *CatalogHandler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HandleDeleteCategory serves DELETE /api/categories/{id}.
func (h *CatalogHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseListOptions reads limit and offset for plain listings.
func parseListOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
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

	return opts, nil
}
