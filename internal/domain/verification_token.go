package domain

import "time"

// EmailVerificationToken es la prueba de un solo uso de propiedad del email.
// Por usuario existe a lo sumo un token vivo: emitir uno nuevo borra el anterior.
type EmailVerificationToken struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired indica si el token ya venció en el instante dado.
func (t EmailVerificationToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
