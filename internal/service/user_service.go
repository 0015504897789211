package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zaibaki/auth-backend/internal/domain"
	"github.com/zaibaki/auth-backend/internal/repository"
)

// UserService cubre las lecturas de perfil y la administración de usuarios;
// son caminos delgados sobre el storage.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	return &UserService{logger: logger, users: users}
}

func (s *UserService) GetByEmail(ctx context.Context, emailAddr string) (domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

type UpdateUserInput struct {
	FirstName string
	LastName  string
	ImageURL  string
}

// Update modifica solo los campos presentes (no vacíos) del input.
func (s *UserService) Update(ctx context.Context, id int64, input UpdateUserInput) (domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.ImageURL != "" {
		user.ImageURL = input.ImageURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	s.logger.Info("user updated", zap.String("email", user.Email))
	return user, nil
}

// Delete elimina el usuario; sus tokens de verificación caen en cascada.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

// ChangePassword verifica la contraseña vieja y guarda el hash de la nueva.
// Devuelve false (sin error) cuando la vieja no coincide.
func (s *UserService) ChangePassword(ctx context.Context, emailAddr, oldPassword, newPassword string) (bool, error) {
	user, err := s.GetByEmail(ctx, emailAddr)
	if err != nil {
		return false, err
	}
	if !CheckPassword(oldPassword, user.PasswordHash) {
		return false, nil
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return false, err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return false, err
	}
	s.logger.Info("password changed", zap.String("email", user.Email))
	return true, nil
}
