package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openrundb/leaderboard-api/internal/apperror"
	"github.com/openrundb/leaderboard-api/internal/auth"
	"github.com/openrundb/leaderboard-api/internal/mail"
	"github.com/openrundb/leaderboard-api/internal/model"
	"github.com/openrundb/leaderboard-api/internal/repository"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit

	confirmTokenTTL = 48 * time.Hour
	recoverTokenTTL = 2 * time.Hour
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// AccountService handles registration, login, email confirmation, and
// password recovery.
//
// Emailed tokens follow an all-or-nothing rule: the token row is persisted
// only after the mailer accepts the message. A rejected message therefore
// leaves no dangling token, and the user can simply retry the operation.
type AccountService struct {
	users     repository.UserRepository
	tokens    repository.AccountTokenRepository
	jwt       *auth.TokenService
	passwords *auth.PasswordService
	mailer    mail.Mailer
	baseURL   string
	logger    *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	tokens repository.AccountTokenRepository,
	jwt *auth.TokenService,
	passwords *auth.PasswordService,
	mailer mail.Mailer,
	baseURL string,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		jwt:       jwt,
		passwords: passwords,
		mailer:    mailer,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// AuthResult bundles the user and the issued JWT so the handler can set the
// cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterRequest is the decoded registration payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a Registered (unconfirmed) account and emails a
// confirmation token. The token is persisted only if the mail is accepted.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if !usernamePattern.MatchString(req.Username) {
		return nil, apperror.ValidationFailed("username",
			"username must be 3-30 characters of letters, digits, hyphen, or underscore")
	}
	email := model.NormalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(req.Password) < MinPasswordLength || len(req.Password) > MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength))
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service/account: hashing password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleRegistered,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.issueToken(ctx, user, model.TokenConfirmAccount, confirmTokenTTL); err != nil {
		// The account exists but holds no token; a confirmation re-request
		// can mint one later. Surface the failure to the caller.
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// issueToken emails a one-shot token and persists it afterwards, so a
// rejected message leaves nothing behind.
func (s *AccountService) issueToken(ctx context.Context, user *model.User, purpose model.TokenPurpose, ttl time.Duration) error {
	token := &model.AccountToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Purpose:   purpose,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}

	var msg mail.Message
	switch purpose {
	case model.TokenConfirmAccount:
		msg = mail.Message{
			To:      user.Email,
			Subject: "Confirm your account",
			Body: fmt.Sprintf("Hi %s,\n\nConfirm your account by posting to:\n\n%s/api/account/confirm/%s\n\nThe link expires in %s.\n",
				user.Username, s.baseURL, token.Token, ttl),
		}
	default:
		msg = mail.Message{
			To:      user.Email,
			Subject: "Password recovery",
			Body: fmt.Sprintf("Hi %s,\n\nReset your password by posting the new password to:\n\n%s/api/account/recover/%s\n\nThe link expires in %s.\nIf you did not request this, ignore this message.\n",
				user.Username, s.baseURL, token.Token, ttl),
		}
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("service/account: dispatching %s mail: %w", purpose, err)
	}
	if err := s.tokens.CreateAccountToken(ctx, token); err != nil {
		return fmt.Errorf("service/account: persisting %s token: %w", purpose, err)
	}
	return nil
}

// LoginRequest is the decoded login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a JWT. Unknown emails and wrong
// passwords return the same Unauthorized to avoid account enumeration.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/account: looking up user: %w", err)
	}

	// OAuth-only accounts have no password hash and cannot password-login.
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, req.Password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := s.jwt.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/account: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Confirm redeems a confirmation token, upgrading a Registered account to
// Confirmed. Unknown tokens are NotFound; expired or already-used ones are
// Unprocessable.
func (s *AccountService) Confirm(ctx context.Context, tokenValue string) (*model.User, error) {
	token, err := s.tokens.GetAccountToken(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	if token.Purpose != model.TokenConfirmAccount {
		return nil, apperror.NotFound("token", tokenValue)
	}
	if !token.Usable(time.Now()) {
		return nil, apperror.Unprocessable("token", "token is expired or already used")
	}

	user, err := s.users.GetUserByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/account: resolving user for token: %w", err)
	}

	if err := s.tokens.MarkAccountTokenUsed(ctx, tokenValue); err != nil {
		return nil, fmt.Errorf("service/account: burning token: %w", err)
	}

	// Only a Registered account is upgraded; confirming twice or confirming
	// a banned account changes nothing.
	if user.Role == model.RoleRegistered {
		if err := s.users.UpdateUserRole(ctx, user.ID, model.RoleConfirmed); err != nil {
			return nil, fmt.Errorf("service/account: confirming user %s: %w", user.ID, err)
		}
		user.Role = model.RoleConfirmed
	}

	s.logger.Info("account confirmed", slog.String("userID", user.ID))
	return user, nil
}

// RequestRecovery emails a recovery token. Unknown emails succeed silently
// so the endpoint cannot be used to probe for accounts.
func (s *AccountService) RequestRecovery(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("service/account: looking up user: %w", err)
	}

	return s.issueToken(ctx, user, model.TokenRecoverAccount, recoverTokenTTL)
}

// ResetPassword redeems a recovery token and replaces the password.
func (s *AccountService) ResetPassword(ctx context.Context, tokenValue, newPassword string) error {
	if len(newPassword) < MinPasswordLength || len(newPassword) > MaxPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength))
	}

	token, err := s.tokens.GetAccountToken(ctx, tokenValue)
	if err != nil {
		return err
	}
	if token.Purpose != model.TokenRecoverAccount {
		return apperror.NotFound("token", tokenValue)
	}
	if !token.Usable(time.Now()) {
		return apperror.Unprocessable("token", "token is expired or already used")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/account: hashing password: %w", err)
	}

	if err := s.tokens.MarkAccountTokenUsed(ctx, tokenValue); err != nil {
		return fmt.Errorf("service/account: burning token: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, token.UserID, hash); err != nil {
		return fmt.Errorf("service/account: updating password for %s: %w", token.UserID, err)
	}

	s.logger.Info("password reset", slog.String("userID", token.UserID))
	return nil
}

// LoginOrRegisterGitHub handles the OAuth callback: upsert the account and
// issue a JWT. OAuth accounts start Confirmed — the provider already
// verified the identity, so there is no email round-trip.
func (s *AccountService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/account: GitHub user must not be nil")
	}

	user := &model.User{
		Username: ghUser.Login,
		Email:    model.NormalizeEmail(ghUser.Email),
		Role:     model.RoleConfirmed,
		GitHubID: ghUser.ID,
	}
	if err := s.users.UpsertUserByGitHubID(ctx, user); err != nil {
		return nil, fmt.Errorf("service/account: upserting github user %d: %w", ghUser.ID, err)
	}

	token, err := s.jwt.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/account: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)
	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the authenticated user's record.
func (s *AccountService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}
