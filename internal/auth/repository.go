// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

// Repository stores refresh tokens by their SHA-256 digest. The raw token
// never reaches the database.
type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// Consume marks an unused token as replaced by replacedByID. It fails
	// with ErrNotFound when the token was already consumed.
	Consume(ctx context.Context, id, replacedByID string) error
	RevokeToken(ctx context.Context, id string) error
	RevokeFamily(ctx context.Context, familyID string) error
	RevokeUser(ctx context.Context, userID string) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

const refreshTokenColumns = `
	id, user_id, token_hash, family_id, expires_at, created_at,
	is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, family_id, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID, token.UserID, token.TokenHash, token.FamilyID,
		token.ExpiresAt, token.UserAgent, token.IPAddress,
	); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`

	var token RefreshToken
	switch err := r.db.GetContext(ctx, &token, query, tokenHash); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

func (r *repository) Consume(ctx context.Context, id, replacedByID string) error {
	const query = `
		UPDATE refresh_tokens
		SET is_used = TRUE, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND NOT is_used`

	result, err := r.db.ExecContext(ctx, query, id, replacedByID)
	if err != nil {
		return fmt.Errorf("consume refresh token: %w", err)
	}

	return core.RequireAffected(result, "consume refresh token")
}

func (r *repository) RevokeToken(ctx context.Context, id string) error {
	n, err := r.revokeWhere(ctx, "id", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeFamily(ctx context.Context, familyID string) error {
	_, err := r.revokeWhere(ctx, "family_id", familyID)
	return err
}

func (r *repository) RevokeUser(ctx context.Context, userID string) error {
	_, err := r.revokeWhere(ctx, "user_id", userID)
	return err
}

// revokeWhere stamps revoked_at on every live token matching column. column
// is always one of the literals above.
func (r *repository) revokeWhere(ctx context.Context, column, value string) (int64, error) {
	//nolint:gosec // G202: column is a fixed identifier, value is bound
	query := `UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE ` + column + ` = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, value)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens by %s: %w", column, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens by %s: %w", column, err)
	}
	return n, nil
}

func (r *repository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return n, nil
}
