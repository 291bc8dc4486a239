package model

import (
	"strings"
	"time"
)

// Role is a user's privilege level.
//
// Accounts start as Registered and become Confirmed once the email
// confirmation round-trips. Only Confirmed and Administrator accounts may
// submit runs; Banned accounts keep their history but lose all write access.
type Role string

const (
	RoleRegistered    Role = "registered"
	RoleConfirmed     Role = "confirmed"
	RoleAdministrator Role = "administrator"
	RoleBanned        Role = "banned"
)

// CanSubmitRuns reports whether the role passes the run-submission gate.
func (r Role) CanSubmitRuns() bool {
	return r == RoleConfirmed || r == RoleAdministrator
}

// User represents an account.
//
// PasswordHash is empty for accounts created through an OAuth provider; such
// accounts cannot log in with a password. GitHubID is zero when the account
// was created with email/password.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Role         Role      `json:"role"      db:"role"`
	GitHubID     int64     `json:"-"         db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TokenPurpose distinguishes the one-shot email tokens.
type TokenPurpose string

const (
	TokenConfirmAccount TokenPurpose = "confirm"
	TokenRecoverAccount TokenPurpose = "recover"
)

// AccountToken is a single-use emailed token for account confirmation or
// password recovery. The token value itself is a UUID, opaque to clients.
type AccountToken struct {
	Token     string       `json:"token"     db:"token"`
	UserID    string       `json:"userId"    db:"user_id"`
	Purpose   TokenPurpose `json:"purpose"   db:"purpose"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time    `json:"expiresAt" db:"expires_at"`
	UsedAt    *time.Time   `json:"usedAt,omitempty" db:"used_at"`
}

// Usable reports whether the token can still be redeemed at time now.
func (t *AccountToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
