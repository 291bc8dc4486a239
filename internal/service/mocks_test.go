package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/openrundb/leaderboard-api/internal/apperror"
	"github.com/openrundb/leaderboard-api/internal/mail"
	"github.com/openrundb/leaderboard-api/internal/model"
	"github.com/openrundb/leaderboard-api/internal/repository"
)

// In-memory repository mocks. They mirror the sqlite behaviour the services
// rely on: copy-on-store, copy-on-read, insertion-order listing with
// played_on as the primary sort key.

type mockRunRepo struct {
	runs   []*model.Run
	nextID int
	failOn error // when set, every call fails with this error
}

func (m *mockRunRepo) CreateRun(_ context.Context, run *model.Run) error {
	if m.failOn != nil {
		return m.failOn
	}
	m.nextID++
	run.ID = fmt.Sprintf("run-%04d", m.nextID)
	run.CreatedAt = time.Now()
	stored := *run
	m.runs = append(m.runs, &stored)
	return nil
}

func (m *mockRunRepo) GetRunByID(_ context.Context, id string) (*model.Run, error) {
	if m.failOn != nil {
		return nil, m.failOn
	}
	for _, r := range m.runs {
		if r.ID == id && r.DeletedAt == nil {
			result := *r
			return &result, nil
		}
	}
	return nil, apperror.NotFound("run", id)
}

func (m *mockRunRepo) ListRunsForCategory(_ context.Context, categoryID string, opts repository.RunListOptions) ([]model.Run, int, error) {
	if m.failOn != nil {
		return nil, 0, m.failOn
	}
	var filtered []model.Run
	for _, r := range m.runs {
		if r.CategoryID != categoryID {
			continue
		}
		if r.DeletedAt != nil && !opts.IncludeDeleted {
			continue
		}
		filtered = append(filtered, *r)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PlayedOn.String() < filtered[j].PlayedOn.String()
	})

	total := len(filtered)
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset > len(filtered) {
		offset = len(filtered)
	}
	filtered = filtered[offset:]
	if limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, total, nil
}

// softDelete marks a run deleted in place, bypassing the repository surface.
func (m *mockRunRepo) softDelete(id string) {
	for _, r := range m.runs {
		if r.ID == id {
			now := time.Now()
			r.DeletedAt = &now
		}
	}
}

type mockCategoryRepo struct {
	categories map[string]*model.Category
	nextID     int
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[string]*model.Category)}
}

func (m *mockCategoryRepo) CreateCategory(_ context.Context, c *model.Category) error {
	for _, existing := range m.categories {
		if existing.LeaderboardID == c.LeaderboardID && existing.Slug == c.Slug {
			return apperror.Conflict("category slug", c.Slug)
		}
	}
	m.nextID++
	c.ID = fmt.Sprintf("cat-%04d", m.nextID)
	c.CreatedAt = time.Now()
	stored := *c
	m.categories[c.ID] = &stored
	return nil
}

func (m *mockCategoryRepo) GetCategoryByID(_ context.Context, id string) (*model.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, apperror.NotFound("category", id)
	}
	result := *c
	return &result, nil
}

func (m *mockCategoryRepo) ListCategoriesForLeaderboard(_ context.Context, leaderboardID string) ([]model.Category, error) {
	var result []model.Category
	for _, c := range m.categories {
		if c.LeaderboardID == leaderboardID && c.DeletedAt == nil {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockCategoryRepo) SoftDeleteCategory(_ context.Context, id string) error {
	c, ok := m.categories[id]
	if !ok || c.DeletedAt != nil {
		return apperror.NotFound("category", id)
	}
	now := time.Now()
	c.DeletedAt = &now
	return nil
}

type mockLeaderboardRepo struct {
	boards map[string]*model.Leaderboard
	nextID int
}

func newMockLeaderboardRepo() *mockLeaderboardRepo {
	return &mockLeaderboardRepo{boards: make(map[string]*model.Leaderboard)}
}

func (m *mockLeaderboardRepo) CreateLeaderboard(_ context.Context, lb *model.Leaderboard) error {
	for _, existing := range m.boards {
		if existing.Slug == lb.Slug {
			return apperror.Conflict("leaderboard slug", lb.Slug)
		}
	}
	m.nextID++
	lb.ID = fmt.Sprintf("lb-%04d", m.nextID)
	lb.CreatedAt = time.Now()
	stored := *lb
	m.boards[lb.ID] = &stored
	return nil
}

func (m *mockLeaderboardRepo) GetLeaderboardByID(_ context.Context, id string) (*model.Leaderboard, error) {
	lb, ok := m.boards[id]
	if !ok {
		return nil, apperror.NotFound("leaderboard", id)
	}
	result := *lb
	return &result, nil
}

func (m *mockLeaderboardRepo) ListLeaderboards(_ context.Context, opts repository.ListOptions) ([]model.Leaderboard, error) {
	var result []model.Leaderboard
	for _, lb := range m.boards {
		result = append(result, *lb)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%04d", m.nextID)
	if user.Role == "" {
		user.Role = model.RoleRegistered
	}
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) UpdateUserRole(_ context.Context, id string, role model.Role) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Role = role
	return nil
}

func (m *mockUserRepo) UpdateUserPassword(_ context.Context, id, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) UpsertUserByGitHubID(ctx context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID == user.GitHubID && user.GitHubID != 0 {
			u.Username = user.Username
			u.Email = user.Email
			user.ID = u.ID
			user.Role = u.Role
			return nil
		}
	}
	return m.CreateUser(ctx, user)
}

type mockTokenRepo struct {
	tokens map[string]*model.AccountToken
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*model.AccountToken)}
}

func (m *mockTokenRepo) CreateAccountToken(_ context.Context, token *model.AccountToken) error {
	stored := *token
	m.tokens[token.Token] = &stored
	return nil
}

func (m *mockTokenRepo) GetAccountToken(_ context.Context, token string) (*model.AccountToken, error) {
	t, ok := m.tokens[token]
	if !ok {
		return nil, apperror.NotFound("token", token)
	}
	result := *t
	return &result, nil
}

func (m *mockTokenRepo) MarkAccountTokenUsed(_ context.Context, token string) error {
	t, ok := m.tokens[token]
	if !ok || t.UsedAt != nil {
		return apperror.NotFound("token", token)
	}
	now := time.Now()
	t.UsedAt = &now
	return nil
}

// mockMailer records sent messages and can be told to refuse delivery.
type mockMailer struct {
	sent   []mail.Message
	failOn error
}

func (m *mockMailer) Send(_ context.Context, msg mail.Message) error {
	if m.failOn != nil {
		return m.failOn
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// seedUser stores a user with the given role and returns it.
func seedUser(t *testing.T, users *mockUserRepo, username string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	if err := users.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return u
}

// seedCategory stores a category and returns it.
func seedCategory(t *testing.T, categories *mockCategoryRepo, leaderboardID string, runType model.RunType) *model.Category {
	t.Helper()
	c := &model.Category{
		LeaderboardID: leaderboardID,
		Name:          "Any%",
		Slug:          "any-" + string(runType),
		RunType:       runType,
		SortDirection: model.SortAscending,
	}
	if err := categories.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("seeding category: %v", err)
	}
	return c
}
