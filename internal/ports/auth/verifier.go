package auth

import "context"

// AuthVerifier resuelve un token a Claims (resolvePrincipal).
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
