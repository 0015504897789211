package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaibaki/auth-backend/internal/domain"
)

// VerificationTokenRepository define el contrato de persistencia para los
// tokens de verificación de email.
type VerificationTokenRepository interface {
	Replace(ctx context.Context, token domain.EmailVerificationToken) (domain.EmailVerificationToken, error)
	GetByToken(ctx context.Context, tokenString string) (domain.EmailVerificationToken, error)
	GetByUserID(ctx context.Context, userID int64) (domain.EmailVerificationToken, error)
	Delete(ctx context.Context, id int64) error
}

// PgVerificationTokenRepository implementa VerificationTokenRepository usando pgxpool.
type PgVerificationTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgVerificationTokenRepository(pool *pgxpool.Pool) *PgVerificationTokenRepository {
	return &PgVerificationTokenRepository{pool: pool}
}

// Replace inserta el token del usuario pisando cualquier token previo. El
// upsert sobre el índice único de user_id garantiza a lo sumo un token vivo
// por usuario aun con reenvíos concurrentes.
func (r *PgVerificationTokenRepository) Replace(ctx context.Context, token domain.EmailVerificationToken) (domain.EmailVerificationToken, error) {
	const query = `
		INSERT INTO email_verification_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		token.Token,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
	).Scan(&token.ID)
	if err != nil {
		return domain.EmailVerificationToken{}, err
	}
	return token, nil
}

func (r *PgVerificationTokenRepository) GetByToken(ctx context.Context, tokenString string) (domain.EmailVerificationToken, error) {
	const query = `
		SELECT id, token, user_id, expires_at, created_at
		FROM email_verification_tokens
		WHERE token = $1
	`
	return r.getOne(ctx, query, tokenString)
}

func (r *PgVerificationTokenRepository) GetByUserID(ctx context.Context, userID int64) (domain.EmailVerificationToken, error) {
	const query = `
		SELECT id, token, user_id, expires_at, created_at
		FROM email_verification_tokens
		WHERE user_id = $1
	`
	return r.getOne(ctx, query, userID)
}

func (r *PgVerificationTokenRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM email_verification_tokens WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgVerificationTokenRepository) getOne(ctx context.Context, query string, arg any) (domain.EmailVerificationToken, error) {
	var t domain.EmailVerificationToken
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&t.ID,
		&t.Token,
		&t.UserID,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	if err != nil {
		return domain.EmailVerificationToken{}, err
	}
	return t, nil
}
