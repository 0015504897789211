package domain

// RoleName es el conjunto fijo de etiquetas de permiso.
type RoleName string

const (
	RoleUser      RoleName = "USER"
	RoleAdmin     RoleName = "ADMIN"
	RoleModerator RoleName = "MODERATOR"
)

// DefaultRoles son los roles sembrados al iniciar cuando la tabla está vacía.
var DefaultRoles = []RoleName{RoleUser, RoleAdmin, RoleModerator}

type Role struct {
	ID   int64    `json:"id"`
	Name RoleName `json:"name"`
}
