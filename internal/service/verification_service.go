package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zaibaki/auth-backend/internal/domain"
	"github.com/zaibaki/auth-backend/internal/repository"
)

// VerificationService administra el ciclo de vida de los tokens de
// verificación de email: crear, canjear, expirar e invalidar al reemitir.
type VerificationService struct {
	tokens repository.VerificationTokenRepository
	users  repository.UserRepository
	ttl    time.Duration
	now    func() time.Time
}

func NewVerificationService(tokens repository.VerificationTokenRepository, users repository.UserRepository, ttl time.Duration) *VerificationService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &VerificationService{
		tokens: tokens,
		users:  users,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue emite un token fresco para el usuario. El reemplazo pisa cualquier
// token previo, así que nunca hay más de un token vivo por usuario.
func (s *VerificationService) Issue(ctx context.Context, user domain.User) (string, error) {
	now := s.now()
	token := domain.EmailVerificationToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	stored, err := s.tokens.Replace(ctx, token)
	if err != nil {
		return "", err
	}
	return stored.Token, nil
}

// Redeem canjea el token exactamente una vez: marca el usuario como
// verificado, borra la fila y devuelve el usuario. Un token ausente falla con
// ErrInvalidToken; uno vencido se borra y falla con ErrTokenExpired, con lo
// que el segundo intento con el mismo string ya es ErrInvalidToken. Entre
// canjes concurrentes el borrado de la fila decide: solo el que la borra
// reporta éxito.
func (s *VerificationService) Redeem(ctx context.Context, tokenString string) (domain.User, error) {
	token, err := s.tokens.GetByToken(ctx, tokenString)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidToken
		}
		return domain.User{}, err
	}

	if token.IsExpired(s.now()) {
		if err := s.tokens.Delete(ctx, token.ID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, err
		}
		return domain.User{}, ErrTokenExpired
	}

	if err := s.users.SetEmailVerified(ctx, token.UserID); err != nil {
		return domain.User{}, err
	}
	if err := s.tokens.Delete(ctx, token.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Otro canje del mismo token ganó el borrado.
			return domain.User{}, ErrInvalidToken
		}
		return domain.User{}, err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// HasLiveToken indica si el usuario tiene un token vigente sin canjearlo.
func (s *VerificationService) HasLiveToken(ctx context.Context, user domain.User) (bool, error) {
	token, err := s.tokens.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return !token.IsExpired(s.now()), nil
}
