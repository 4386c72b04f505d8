package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger loguea una línea por request con el request id de chi.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			}
			if p, ok := GetPrincipal(r.Context()); ok {
				attrs = append(attrs, "user_id", p.ID, "role", string(p.Role))
			}

			switch {
			case ww.Status() >= 500:
				log.ErrorContext(r.Context(), "http request", attrs...)
			case ww.Status() >= 400:
				log.WarnContext(r.Context(), "http request", attrs...)
			default:
				log.InfoContext(r.Context(), "http request", attrs...)
			}
		})
	}
}
