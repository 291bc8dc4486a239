package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openrundb/leaderboard-api/internal/apperror"
	"github.com/openrundb/leaderboard-api/internal/model"
	"github.com/openrundb/leaderboard-api/internal/repository"
)

var _ repository.AccountTokenRepository = (*DB)(nil)

// CreateAccountToken persists a confirmation or recovery token. The token
// value (a UUID) is generated by the caller; the account service only
// persists it after the mail carrying it was accepted for delivery.
func (db *DB) CreateAccountToken(ctx context.Context, token *model.AccountToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO account_tokens (token, user_id, purpose, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		token.Token,
		token.UserID,
		string(token.Purpose),
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating account token: %w", err)
	}

	return nil
}

func (db *DB) GetAccountToken(ctx context.Context, token string) (*model.AccountToken, error) {
	var t model.AccountToken

	err := db.conn.QueryRowContext(ctx,
		`SELECT token, user_id, purpose, created_at, expires_at, used_at
		 FROM account_tokens
		 WHERE token = ?`,
		token,
	).Scan(&t.Token, &t.UserID, &t.Purpose, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("token", token)
		}
		return nil, fmt.Errorf("sqlite: getting account token: %w", err)
	}

	return &t, nil
}

// MarkAccountTokenUsed burns a token. Burning an already-used or unknown
// token reports NotFound, which keeps redemption single-use under retries.
func (db *DB) MarkAccountTokenUsed(ctx context.Context, token string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE account_tokens SET used_at = ? WHERE token = ? AND used_at IS NULL`,
		time.Now().UTC(), token,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking account token used: %w", err)
	}
	return requireAffected(result, "token", token)
}
