package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const refreshTokenColumns = `id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent`

// CreateRefreshToken stores a session. token.Token must already be a digest.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO refresh_tokens (` + refreshTokenColumns + `)
VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token for %s: %w", token.UserID, err)
	}
	return nil
}

// FindRefreshToken looks a session up by digest. Revoked rows are returned too.
func (r *UserRepository) FindRefreshToken(ctx context.Context, digest string) (*models.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token = $1`
	var token models.RefreshToken
	if err := r.db.GetContext(ctx, &token, query, digest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken revokes one session.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token %s: %w", id, err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes every open session of a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", userID, err)
	}
	return nil
}

// PurgeRefreshTokens deletes sessions that expired, or were revoked, before cutoff.
func (r *UserRepository) PurgeRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at < $1 OR (revoked AND revoked_at < $1)`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
