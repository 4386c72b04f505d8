package appointments

import (
	"context"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

type Op string

const (
	OpCreated        Op = "created"
	OpConfirmed      Op = "confirmed"
	OpCompleted      Op = "completed"
	OpCancelled      Op = "cancelled"
	OpRescheduled    Op = "rescheduled"
	OpDetailsUpdated Op = "details_updated"
)

// Change describe un write ya confirmado en el store.
type Change struct {
	Op          Op
	Actor       policy.Principal
	From        Status // vacío en OpCreated
	Appointment Appointment
	At          time.Time
}

// Hook recibe cada Change después del commit. Sus errores sólo se loguean.
type Hook interface {
	AppointmentChanged(ctx context.Context, ch Change) error
}

type HookFunc func(ctx context.Context, ch Change) error

func (f HookFunc) AppointmentChanged(ctx context.Context, ch Change) error { return f(ctx, ch) }
