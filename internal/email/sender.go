package email

import (
	"context"
	"errors"

	"github.com/zaibaki/auth-backend/internal/domain"
)

// Sender define la interfaz para despacho de notificaciones por correo.
// Todos los envíos son best-effort: el que dispara loguea la falla y sigue.
type Sender interface {
	SendVerification(ctx context.Context, user domain.User, token string) error
	SendWelcome(ctx context.Context, user domain.User) error
	SendPasswordReset(ctx context.Context, user domain.User, token string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendVerification(_ context.Context, _ domain.User, _ string) error {
	return s.err()
}

func (s *disabledSender) SendWelcome(_ context.Context, _ domain.User) error {
	return s.err()
}

func (s *disabledSender) SendPasswordReset(_ context.Context, _ domain.User, _ string) error {
	return s.err()
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
