package service

import (
	"errors"
	"fmt"

	"github.com/zaibaki/auth-backend/internal/domain"
)

// Errores tipados que el orquestador devuelve a la capa de transporte. El
// boundary HTTP los mapea a códigos de estado estables sin inspeccionar el
// mensaje.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email address already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrProviderConflict   = errors.New("provider conflict")
	ErrOAuthInvalid       = errors.New("oauth data invalid")
	ErrRateLimited        = errors.New("rate limited")
)

// ProviderConflictError indica que el email ya pertenece a una cuenta de otro
// provider; expone el provider existente para que el caller pueda indicar el
// método de acceso original. errors.Is(err, ErrProviderConflict) lo matchea.
type ProviderConflictError struct {
	Provider domain.AuthProvider
}

func (e *ProviderConflictError) Error() string {
	return fmt.Sprintf("account already registered with provider %s", e.Provider)
}

func (e *ProviderConflictError) Is(target error) bool {
	return target == ErrProviderConflict
}
