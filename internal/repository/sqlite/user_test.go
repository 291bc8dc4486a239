package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openrundb/leaderboard-api/internal/apperror"
	"github.com/openrundb/leaderboard-api/internal/model"
)

func TestCreateUser_DefaultsToRegistered(t *testing.T) {
	db := newTestDB(t)

	u := &model.User{Username: "newbie", Email: "newbie@example.com"}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := db.GetUserByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Role != model.RoleRegistered {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleRegistered)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "runner")

	dup := &model.User{Username: "other", Email: "runner@example.com"}
	err := db.CreateUser(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate email: error = %v, want ErrConflict", err)
	}
}

func TestGetUserByEmail_Normalizes(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "runner")

	got, err := db.GetUserByEmail(context.Background(), "  Runner@Example.COM ")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID = %s, want %s", got.ID, u.ID)
	}
}

func TestUpdateUserRole(t *testing.T) {
	db := newTestDB(t)
	u := &model.User{Username: "newbie", Email: "newbie@example.com"}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if err := db.UpdateUserRole(context.Background(), u.ID, model.RoleConfirmed); err != nil {
		t.Fatalf("UpdateUserRole() error = %v", err)
	}

	got, err := db.GetUserByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Role != model.RoleConfirmed {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleConfirmed)
	}
}

func TestUpdateUserRole_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateUserRole(context.Background(), "missing", model.RoleBanned)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpsertUserByGitHubID(t *testing.T) {
	db := newTestDB(t)

	first := &model.User{
		Username: "octo",
		Email:    "octo@example.com",
		Role:     model.RoleConfirmed,
		GitHubID: 42,
	}
	if err := db.UpsertUserByGitHubID(context.Background(), first); err != nil {
		t.Fatalf("UpsertUserByGitHubID() insert error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("insert did not set ID")
	}

	// Second sign-in with a renamed GitHub account reuses the same row.
	second := &model.User{
		Username: "octocat",
		Email:    "octo@example.com",
		GitHubID: 42,
	}
	if err := db.UpsertUserByGitHubID(context.Background(), second); err != nil {
		t.Fatalf("UpsertUserByGitHubID() update error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("update created new row: ID = %s, want %s", second.ID, first.ID)
	}
	if second.Role != model.RoleConfirmed {
		t.Errorf("Role = %q, want preserved %q", second.Role, model.RoleConfirmed)
	}

	got, err := db.GetUserByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Username != "octocat" {
		t.Errorf("Username = %q, want refreshed %q", got.Username, "octocat")
	}
}

func TestAccountToken_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "runner")

	token := &model.AccountToken{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		Purpose:   model.TokenConfirmAccount,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := db.CreateAccountToken(context.Background(), token); err != nil {
		t.Fatalf("CreateAccountToken() error = %v", err)
	}

	got, err := db.GetAccountToken(context.Background(), token.Token)
	if err != nil {
		t.Fatalf("GetAccountToken() error = %v", err)
	}
	if !got.Usable(time.Now()) {
		t.Error("fresh token should be usable")
	}

	if err := db.MarkAccountTokenUsed(context.Background(), token.Token); err != nil {
		t.Fatalf("MarkAccountTokenUsed() error = %v", err)
	}

	// Second redemption fails: tokens are single-use.
	err = db.MarkAccountTokenUsed(context.Background(), token.Token)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second redemption: error = %v, want ErrNotFound", err)
	}

	got, err = db.GetAccountToken(context.Background(), token.Token)
	if err != nil {
		t.Fatalf("GetAccountToken() after use error = %v", err)
	}
	if got.Usable(time.Now()) {
		t.Error("used token should not be usable")
	}
}
