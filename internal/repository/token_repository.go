package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/domain"
)

// TokenRepository manages single-use token persistence.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.SingleUseToken) error
	GetByValue(ctx context.Context, value string) (*domain.SingleUseToken, error)
	GetByIdentityID(ctx context.Context, identityID string) (*domain.SingleUseToken, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenRepository struct {
	db DBTX
}

// NewTokenRepository constructs the repository.
func NewTokenRepository(db DBTX) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *domain.SingleUseToken) error {
	const query = `
        INSERT INTO user_tokens (token_id, token, user_id, expiration_date, created_at)
        VALUES ($1,$2,$3,$4,$5)`

	_, err := r.db.Exec(ctx, query,
		token.ID,
		token.Value,
		token.IdentityID,
		token.ExpiresAt,
		token.CreatedAt,
	)
	// The unique user_id constraint backs the one-live-token-per-identity
	// invariant even when two requests race past the service-level check.
	if err != nil && isUniqueViolation(err, "user_tokens_user_id_key") {
		return domain.ErrTokenAlreadyPending
	}
	return err
}

func (r *tokenRepository) GetByValue(ctx context.Context, value string) (*domain.SingleUseToken, error) {
	const query = `
        SELECT token_id, token, user_id, expiration_date, created_at
        FROM user_tokens WHERE token=$1`
	return r.scanToken(r.db.QueryRow(ctx, query, value))
}

func (r *tokenRepository) GetByIdentityID(ctx context.Context, identityID string) (*domain.SingleUseToken, error) {
	const query = `
        SELECT token_id, token, user_id, expiration_date, created_at
        FROM user_tokens WHERE user_id=$1`
	return r.scanToken(r.db.QueryRow(ctx, query, identityID))
}

func (r *tokenRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM user_tokens WHERE token_id=$1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM user_tokens WHERE expiration_date < $1`

	cmd, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *tokenRepository) scanToken(row pgx.Row) (*domain.SingleUseToken, error) {
	var token domain.SingleUseToken
	if err := row.Scan(
		&token.ID,
		&token.Value,
		&token.IdentityID,
		&token.ExpiresAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}
