package policy

import (
	"fmt"
	"strings"
)

// Role es el único rol de un principal. Se resuelve una vez al autenticar.
type Role string

const (
	RoleClient       Role = "CLIENT"
	RoleVeterinarian Role = "VETERINARIAN"
)

// ParseRole es estricto: cualquier valor fuera de los dos roles es error.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleClient:
		return RoleClient, nil
	case RoleVeterinarian:
		return RoleVeterinarian, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleVeterinarian
}

// Principal es el actor autenticado que se pasa explícitamente a cada operación.
type Principal struct {
	ID   string
	Role Role
}

func Client(id string) Principal       { return Principal{ID: id, Role: RoleClient} }
func Veterinarian(id string) Principal { return Principal{ID: id, Role: RoleVeterinarian} }

func (p Principal) IsClient() bool       { return p.Role == RoleClient }
func (p Principal) IsVeterinarian() bool { return p.Role == RoleVeterinarian }

// Valid: id no vacío y rol conocido.
func (p Principal) Valid() bool {
	return strings.TrimSpace(p.ID) != "" && p.Role.Valid()
}
