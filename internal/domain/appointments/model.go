package appointments

import (
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

// Status del turno.
// @Enum PENDING, CONFIRMED, COMPLETED, CANCELLED
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// transitions: from -> destinos permitidos. COMPLETED y CANCELLED no tienen salida.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return &domain.TransitionError{Entity: "appointment", From: string(from), To: string(to)}
}

// Appointment es un turno entre un cliente, un veterinario y una mascota.
type Appointment struct {
	ID string

	ClientID       string
	VeterinarianID string
	PetID          string

	Date time.Time // fecha calendario, 00:00 UTC
	Time *Clock    // opcional

	Reason string
	Notes  string
	Status Status

	// Version crece en cada write; se usa para el update condicional.
	Version int64

	CancelledBy string
	CancelledAt *time.Time
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Appointment) Resource() policy.Resource {
	return policy.Resource{
		Kind:           policy.KindAppointment,
		ClientID:       a.ClientID,
		VeterinarianID: a.VeterinarianID,
	}
}

func (a Appointment) IsPast(today time.Time) bool {
	return a.Date.Before(DateOf(today))
}

func (a Appointment) IsUpcoming(today time.Time) bool {
	return !a.IsPast(today) && a.Status == StatusConfirmed
}

func (a Appointment) CanBeCancelled(today time.Time) bool {
	return (a.Status == StatusPending || a.Status == StatusConfirmed) && !a.IsPast(today)
}

// DateOf descarta la hora y devuelve la fecha calendario de t a las 00:00 UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parsea YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
