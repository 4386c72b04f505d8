package consultations

import (
	"context"
	"time"
)

type Repository interface {
	// CreateForAppointment inserta c sólo si al momento de escribir el turno sigue
	// COMPLETED, es de c.VeterinarianID y no tiene consulta. Chequeo y escritura
	// son atómicos. Errores: ErrNotFound, ErrPreconditionFailed, ErrForbidden, ErrConflict.
	CreateForAppointment(ctx context.Context, c Consultation) error

	GetByID(ctx context.Context, id string) (Consultation, error)
	GetByAppointment(ctx context.Context, appointmentID string) (Consultation, error)
	// UpdateIfUnchanged escribe c sólo si su updated_at sigue siendo readAt.
	// Errores: ErrNotFound, ErrConflict si otro escritor llegó antes.
	UpdateIfUnchanged(ctx context.Context, c Consultation, readAt time.Time) error
	List(ctx context.Context, filter ListFilter) ([]Consultation, error)
}

type ListFilter struct {
	VeterinarianID string
	ClientID       string // vía appointment
	PetID          string // vía appointment
	FollowUpOnly   bool
	Limit          int
}

func (f ListFilter) Matches(c Consultation) bool {
	if f.VeterinarianID != "" && c.VeterinarianID != f.VeterinarianID {
		return false
	}
	if f.ClientID != "" && c.ClientID != f.ClientID {
		return false
	}
	if f.PetID != "" && c.PetID != f.PetID {
		return false
	}
	if f.FollowUpOnly && !c.FollowUpRequired {
		return false
	}
	return true
}
