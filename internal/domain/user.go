package domain

import "time"

// AuthProvider identifica el origen de autenticación de una cuenta.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "LOCAL"
	ProviderGoogle AuthProvider = "GOOGLE"
)

// User es el registro de identidad. El email es único en todo el store,
// sin importar el provider.
type User struct {
	ID            int64        `json:"id"`
	FirstName     string       `json:"first_name"`
	LastName      string       `json:"last_name"`
	Email         string       `json:"email"`
	PasswordHash  string       `json:"-"`
	Provider      AuthProvider `json:"provider"`
	ProviderID    string       `json:"-"`
	EmailVerified bool         `json:"email_verified"`
	ImageURL      string       `json:"image_url,omitempty"`
	Roles         []string     `json:"roles"`
	CreatedAt     time.Time    `json:"created_at"`
}

// HasRole indica si el usuario tiene el rol dado.
func (u User) HasRole(name RoleName) bool {
	for _, r := range u.Roles {
		if r == string(name) {
			return true
		}
	}
	return false
}
