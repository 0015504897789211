package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/zaibaki/auth-backend/internal/domain"
	"github.com/zaibaki/auth-backend/internal/repository"
)

// Identity es la afirmación de identidad normalizada que entrega el cliente
// del proveedor federado.
type Identity struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ImageURL   string `json:"image_url"`
}

// ProfileExtractor normaliza los atributos crudos de un proveedor. Agregar un
// proveedor es agregar una variante al registro, no una jerarquía de tipos.
type ProfileExtractor interface {
	Provider() domain.AuthProvider
	Extract(attrs map[string]any) (Identity, error)
}

type googleExtractor struct{}

func (googleExtractor) Provider() domain.AuthProvider { return domain.ProviderGoogle }

func (googleExtractor) Extract(attrs map[string]any) (Identity, error) {
	id := Identity{
		ExternalID: stringAttr(attrs, "sub"),
		Email:      stringAttr(attrs, "email"),
		FirstName:  stringAttr(attrs, "given_name"),
		LastName:   stringAttr(attrs, "family_name"),
		ImageURL:   stringAttr(attrs, "picture"),
	}
	if id.Email == "" {
		return Identity{}, ErrOAuthInvalid
	}
	return id, nil
}

var extractors = map[string]ProfileExtractor{
	"google": googleExtractor{},
}

// ExtractorFor devuelve el extractor registrado para el registration id.
func ExtractorFor(registrationID string) (ProfileExtractor, bool) {
	e, ok := extractors[strings.ToLower(strings.TrimSpace(registrationID))]
	return e, ok
}

func stringAttr(attrs map[string]any, key string) string {
	v, _ := attrs[key].(string)
	return strings.TrimSpace(v)
}

// mergeOutcome es la decisión explícita de la máquina de merge; cada salida
// se testea por separado.
type mergeOutcome int

const (
	mergeNewAccount mergeOutcome = iota
	mergeSameProvider
	mergeConvertLocal
	mergeConflict
)

func decideMerge(existing domain.User, found bool, provider domain.AuthProvider) mergeOutcome {
	switch {
	case !found:
		return mergeNewAccount
	case existing.Provider == provider:
		return mergeSameProvider
	case existing.Provider == domain.ProviderLocal:
		return mergeConvertLocal
	default:
		return mergeConflict
	}
}

// Placeholder para el apellido cuando ni la afirmación ni el valor guardado
// traen uno; un usuario nuevo sí queda con string vacío. La asimetría viene
// del comportamiento original y está pendiente de revisión de producto.
const lastNamePlaceholder = "User"

// IdentityResolver concilia una identidad federada con el registro local:
// encuentra, crea o convierte el User según el estado del store.
type IdentityResolver struct {
	users repository.UserRepository
}

func NewIdentityResolver(users repository.UserRepository) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve aplica la máquina de merge y devuelve el usuario resultante con sus
// roles cargados. La conversión LOCAL→provider federado es de una sola vía.
func (r *IdentityResolver) Resolve(ctx context.Context, provider domain.AuthProvider, id Identity) (domain.User, error) {
	if id.Email == "" || id.ExternalID == "" {
		return domain.User{}, ErrOAuthInvalid
	}

	existing, err := r.users.GetByEmail(ctx, id.Email)
	found := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	switch decideMerge(existing, found, provider) {
	case mergeNewAccount:
		user := domain.User{
			FirstName:     id.FirstName,
			LastName:      id.LastName,
			Email:         id.Email,
			Provider:      provider,
			ProviderID:    id.ExternalID,
			EmailVerified: true,
			ImageURL:      id.ImageURL,
			Roles:         []string{string(domain.RoleUser)},
		}
		return r.users.Create(ctx, user)

	case mergeSameProvider:
		applyProfile(&existing, id)
		if err := r.users.Update(ctx, existing); err != nil {
			return domain.User{}, err
		}
		return existing, nil

	case mergeConvertLocal:
		existing.Provider = provider
		existing.ProviderID = id.ExternalID
		existing.EmailVerified = true
		applyProfile(&existing, id)
		if err := r.users.Update(ctx, existing); err != nil {
			return domain.User{}, err
		}
		return existing, nil

	default:
		return domain.User{}, &ProviderConflictError{Provider: existing.Provider}
	}
}

// applyProfile actualiza los campos mutables de perfil: un valor afirmado no
// vacío pisa el guardado, uno ausente lo preserva.
func applyProfile(user *domain.User, id Identity) {
	user.FirstName = mergeProfileField(id.FirstName, user.FirstName, "")
	user.LastName = mergeProfileField(id.LastName, user.LastName, lastNamePlaceholder)
	user.ImageURL = mergeProfileField(id.ImageURL, user.ImageURL, "")
}

func mergeProfileField(asserted, stored, placeholder string) string {
	if asserted != "" {
		return asserted
	}
	if stored != "" {
		return stored
	}
	return placeholder
}
