// Package httpjson concentra el writeJSON que antes se duplicaba por módulo,
// más el mapeo de errores de dominio a status HTTP.
package httpjson

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
)

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
	From   string              `json:"from,omitempty"`
	To     string              `json:"to,omitempty"`
}

func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, errorBody{Error: msg})
}

// Decode lee el body JSON. Body vacío es error.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// WriteError traduce errores de dominio. Lo que no reconoce es 500 y se loguea.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *domain.ValidationError
		terr *domain.TransitionError
	)

	switch {
	case errors.As(err, &verr):
		Write(w, http.StatusBadRequest, errorBody{Error: "validation error", Fields: verr.Errors})
	case errors.As(err, &terr):
		Write(w, http.StatusConflict, errorBody{Error: "invalid status transition", From: terr.From, To: terr.To})
	case errors.Is(err, domain.ErrValidation):
		// p.ej. un CHECK de Postgres (23514) envuelto sin detalle por campo.
		Error(w, http.StatusBadRequest, "validation error")
	case errors.Is(err, domain.ErrInvalidTransition):
		Error(w, http.StatusConflict, "invalid status transition")
	case errors.Is(err, domain.ErrForbidden):
		if domain.IsHidden(err) {
			Error(w, http.StatusNotFound, "not found")
			return
		}
		Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		Error(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrPreconditionFailed):
		Error(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		Error(w, http.StatusUnauthorized, "unauthorized")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
