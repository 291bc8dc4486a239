package model

import (
	"fmt"
	"strings"
	"time"
)

// RunType discriminates how a run's stored value is interpreted:
// an elapsed duration for timed categories, a plain integer for scored ones.
type RunType string

const (
	RunTypeTime  RunType = "time"
	RunTypeScore RunType = "score"
)

// ParseRunType normalises a wire value ("Time", "score", ...) to a RunType.
func ParseRunType(s string) (RunType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RunTypeTime):
		return RunTypeTime, nil
	case string(RunTypeScore):
		return RunTypeScore, nil
	default:
		return "", fmt.Errorf("model: unknown run type %q", s)
	}
}

// SortDirection determines ranking order within a category.
// Timed categories usually sort ascending (fastest first), scored ones
// descending (highest first), but the pairing is not enforced.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// ParseSortDirection normalises a wire value to a SortDirection.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(SortAscending), "ascending":
		return SortAscending, nil
	case string(SortDescending), "descending":
		return SortDescending, nil
	default:
		return "", fmt.Errorf("model: unknown sort direction %q", s)
	}
}

// Category is a ranking configuration under a leaderboard. It fixes the run
// type and sort direction for every run submitted against it.
//
// DeletedAt is the soft-delete marker: a non-nil value retires the category
// from run submission while its historical runs remain browsable.
type Category struct {
	ID            string        `json:"id"            db:"id"`
	LeaderboardID string        `json:"leaderboardId" db:"leaderboard_id"`
	Name          string        `json:"name"          db:"name"`
	Slug          string        `json:"slug"          db:"slug"` // unique within a leaderboard
	RunType       RunType       `json:"runType"       db:"run_type"`
	SortDirection SortDirection `json:"sortDirection" db:"sort_direction"`
	CreatedAt     time.Time     `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt"     db:"updated_at"`
	DeletedAt     *time.Time    `json:"deletedAt,omitempty" db:"deleted_at"`
}

// Deleted reports whether the category has been soft-deleted.
func (c *Category) Deleted() bool {
	return c.DeletedAt != nil
}
