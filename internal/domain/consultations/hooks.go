package consultations

import (
	"context"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
)

type Change struct {
	Op           Op
	Actor        policy.Principal
	Consultation Consultation
}

// Hook se ejecuta después del commit; best-effort.
type Hook interface {
	ConsultationChanged(ctx context.Context, ch Change) error
}

type HookFunc func(ctx context.Context, ch Change) error

func (f HookFunc) ConsultationChanged(ctx context.Context, ch Change) error { return f(ctx, ch) }
