// Package model defines the data structures used throughout the application.
package model

import "time"

// Leaderboard is the top-level grouping of categories for a game or activity.
// Leaderboards are never deleted; retiring content happens at the category
// level via soft deletion.
type Leaderboard struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Slug      string    `json:"slug"      db:"slug"` // URL slug, unique across leaderboards
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
