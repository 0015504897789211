package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zaibaki/auth-backend/internal/domain"
	"github.com/zaibaki/auth-backend/internal/email"
	"github.com/zaibaki/auth-backend/internal/repository"
)

const emailDispatchTimeout = 10 * time.Second

// AuthService orquesta registro, login, refresh, verificación de email y
// logout componiendo el codec de tokens, el hash de credenciales, el ledger
// de verificación y el resolver de identidad.
type AuthService struct {
	logger       *zap.Logger
	users        repository.UserRepository
	jwt          *JWTService
	verification *VerificationService
	resolver     *IdentityResolver
	sender       email.Sender
	limiter      RateLimiter
}

func NewAuthService(
	logger *zap.Logger,
	users repository.UserRepository,
	jwtSvc *JWTService,
	verification *VerificationService,
	resolver *IdentityResolver,
	sender email.Sender,
	limiter RateLimiter,
) *AuthService {
	if limiter == nil {
		limiter = NewResendLimiter(10*time.Minute, 3)
	}
	return &AuthService{
		logger:       logger,
		users:        users,
		jwt:          jwtSvc,
		verification: verification,
		resolver:     resolver,
		sender:       sender,
		limiter:      limiter,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register crea una cuenta local sin verificar, emite su token de
// verificación y despacha el correo fuera del camino crítico. Si el token no
// se puede emitir, el usuario recién creado se elimina para no dejar una
// cuenta inverificable.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	emailAddr := strings.TrimSpace(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	// Fast path; la garantía real es el índice único sobre email.
	exists, err := s.users.ExistsByEmail(ctx, emailAddr)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		Email:         emailAddr,
		PasswordHash:  hash,
		Provider:      domain.ProviderLocal,
		EmailVerified: false,
		Roles:         []string{string(domain.RoleUser)},
	}

	user, err = s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.User{}, ErrEmailAlreadyExists
		}
		return domain.User{}, err
	}

	token, err := s.verification.Issue(ctx, user)
	if err != nil {
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("rollback of unverifiable user failed",
				zap.Error(delErr), zap.Int64("user_id", user.ID))
		}
		return domain.User{}, err
	}

	s.dispatchVerification(user, token)
	return user, nil
}

// Login valida credenciales y emite el par access+refresh. Un email
// inexistente y una contraseña incorrecta fallan igual: ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.User, TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, TokenPair{}, err
	}
	if !CheckPassword(password, user.PasswordHash) {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.jwt.GeneratePair(user.Email)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	s.logger.Info("user logged in", zap.String("email", user.Email))
	return user, pair, nil
}

// Refresh emite un par nuevo a partir de un refresh token válido, sin
// re-chequear la contraseña.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.User, TokenPair, error) {
	if !s.jwt.IsRefreshToken(refreshToken) {
		return domain.User{}, TokenPair{}, ErrInvalidToken
	}
	claims, err := s.jwt.ParseAndValidate(refreshToken)
	if err != nil {
		return domain.User{}, TokenPair{}, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeRefresh {
		return domain.User{}, TokenPair{}, ErrInvalidToken
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, TokenPair{}, ErrUserNotFound
		}
		return domain.User{}, TokenPair{}, err
	}

	pair, err := s.jwt.GeneratePair(user.Email)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// VerifyEmail canjea el token y dispara el correo de bienvenida. Una falla en
// la notificación no deshace la verificación.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (domain.User, error) {
	user, err := s.verification.Redeem(ctx, token)
	if err != nil {
		return domain.User{}, err
	}
	s.dispatchWelcome(user)
	s.logger.Info("email verified", zap.String("email", user.Email))
	return user, nil
}

// ResendVerification reemite el token (invalidando el anterior) y reenvía el
// correo. Para un usuario ya verificado es un no-op exitoso.
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}
	if s.limiter != nil && !s.limiter.Allow(user.Email) {
		return ErrRateLimited
	}

	token, err := s.verification.Issue(ctx, user)
	if err != nil {
		return err
	}
	s.dispatchVerification(user, token)
	return nil
}

// FederatedLogin concilia la identidad federada con el store y emite el par
// de tokens para el usuario resultante.
func (s *AuthService) FederatedLogin(ctx context.Context, registrationID string, attrs map[string]any) (domain.User, TokenPair, error) {
	extractor, ok := ExtractorFor(registrationID)
	if !ok {
		return domain.User{}, TokenPair{}, ErrOAuthInvalid
	}
	identity, err := extractor.Extract(attrs)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	user, err := s.resolver.Resolve(ctx, extractor.Provider(), identity)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	pair, err := s.jwt.GeneratePair(user.Email)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	s.logger.Info("federated login", zap.String("email", user.Email), zap.String("provider", string(user.Provider)))
	return user, pair, nil
}

// Logout es stateless: no hay invalidación del lado del servidor.
func (s *AuthService) Logout(_ string) {
	s.logger.Info("user logged out")
}

func (s *AuthService) dispatchVerification(user domain.User, token string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailDispatchTimeout)
		defer cancel()
		if err := s.sender.SendVerification(ctx, user, token); err != nil {
			s.logger.Warn("send verification email failed",
				zap.Error(err), zap.String("email", user.Email))
		}
	}()
}

func (s *AuthService) dispatchWelcome(user domain.User) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailDispatchTimeout)
		defer cancel()
		if err := s.sender.SendWelcome(ctx, user); err != nil {
			s.logger.Warn("send welcome email failed",
				zap.Error(err), zap.String("email", user.Email))
		}
	}()
}
