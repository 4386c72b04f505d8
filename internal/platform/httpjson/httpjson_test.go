package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
)

func TestWriteError_Status(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"field validation", domain.NewValidationError("date", "required"), http.StatusBadRequest},
		{"wrapped validation sentinel", fmt.Errorf("appointment a-1: check appointments_status_check: %w", domain.ErrValidation), http.StatusBadRequest},
		{"transition", &domain.TransitionError{From: "COMPLETED", To: "CANCELLED"}, http.StatusConflict},
		{"wrapped transition sentinel", fmt.Errorf("cancel: %w", domain.ErrInvalidTransition), http.StatusConflict},
		{"hidden forbidden", &domain.ForbiddenError{Action: "read", Hidden: true}, http.StatusNotFound},
		{"forbidden", &domain.ForbiddenError{Action: "update"}, http.StatusForbidden},
		{"not found", fmt.Errorf("pet p-1: %w", domain.ErrNotFound), http.StatusNotFound},
		{"conflict", domain.ErrConflict, http.StatusConflict},
		{"precondition", domain.ErrPreconditionFailed, http.StatusPreconditionFailed},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			WriteError(rec, req, tc.err)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestWriteError_ValidationBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/appointments", nil)

	WriteError(rec, req, fmt.Errorf("insert: %w", domain.ErrValidation))

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Error != "validation error" || len(body.Fields) != 0 {
		t.Fatalf("unexpected body %+v", body)
	}
}
