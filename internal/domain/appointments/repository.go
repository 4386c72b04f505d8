package appointments

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a Appointment) error
	GetByID(ctx context.Context, id string) (Appointment, error)

	// UpdateIfVersion persiste a sólo si la versión almacenada sigue siendo expected.
	// Si otro write ganó devuelve domain.ErrConflict; si no existe, domain.ErrNotFound.
	UpdateIfVersion(ctx context.Context, a Appointment, expected int64) error

	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
}

// ListFilter: los campos vacíos no filtran.
type ListFilter struct {
	ClientID       string
	VeterinarianID string
	PetID          string
	Statuses       []Status
	FromDate       *time.Time // date >= FromDate
	Limit          int
}

func (f ListFilter) Matches(a Appointment) bool {
	if f.ClientID != "" && a.ClientID != f.ClientID {
		return false
	}
	if f.VeterinarianID != "" && a.VeterinarianID != f.VeterinarianID {
		return false
	}
	if f.PetID != "" && a.PetID != f.PetID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, st := range f.Statuses {
			if a.Status == st {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.FromDate != nil && a.Date.Before(*f.FromDate) {
		return false
	}
	return true
}
