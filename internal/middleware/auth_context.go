package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/platform/httpjson"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/ports/auth"
)

type ctxKey string

const principalKey ctxKey = "principal"

const (
	HeaderDebugUserID   = "X-Debug-User-ID"
	HeaderDebugUserRole = "X-Debug-User-Role"
)

// AuthContext resuelve el principal una sola vez por request:
// - verifier != nil: Bearer token -> Verify() -> Claims -> Principal.
// - verifier == nil (modo dev): headers X-Debug-User-ID / X-Debug-User-Role (default CLIENT).
// Sin principal el request sigue; los handlers devuelven 401.
func AuthContext(verifier auth.AuthVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var claims auth.Claims

			if verifier == nil {
				claims = auth.Claims{
					UserID: strings.TrimSpace(r.Header.Get(HeaderDebugUserID)),
					Role:   strings.TrimSpace(r.Header.Get(HeaderDebugUserRole)),
				}
				if claims.UserID != "" && claims.Role == "" {
					claims.Role = string(policy.RoleClient)
				}
			} else if token := bearerToken(r.Header.Get("Authorization")); token != "" {
				c, err := verifier.Verify(r.Context(), token)
				if err != nil {
					log.DebugContext(r.Context(), "token rejected", "error", err)
				} else {
					claims = c
				}
			}

			if claims.UserID == "" {
				next.ServeHTTP(w, r)
				return
			}

			role, err := policy.ParseRole(claims.Role)
			if err != nil {
				// Rol desconocido: no hay principal.
				log.DebugContext(r.Context(), "principal without valid role", "user_id", claims.UserID, "role", claims.Role)
				next.ServeHTTP(w, r)
				return
			}

			p := policy.Principal{ID: claims.UserID, Role: role}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p policy.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) (policy.Principal, bool) {
	p, ok := ctx.Value(principalKey).(policy.Principal)
	if !ok || !p.Valid() {
		return policy.Principal{}, false
	}
	return p, true
}

// RequirePrincipal escribe 401 si no hay principal.
func RequirePrincipal(w http.ResponseWriter, r *http.Request) (policy.Principal, bool) {
	p, ok := GetPrincipal(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return policy.Principal{}, false
	}
	return p, true
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
