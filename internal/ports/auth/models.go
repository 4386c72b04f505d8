package auth

// Claims es lo que devuelve el directorio de identidad para un token.
// Role viene como string crudo; el middleware lo convierte a policy.Role.
type Claims struct {
	UserID string
	Role   string
	Email  string
}
