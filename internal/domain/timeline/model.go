package timeline

import (
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

type Actor struct {
	ID   string
	Role policy.Role
}

// Entry es una línea del historial clínico de una mascota. Las entradas
// generadas por el ciclo de vida no se editan; sólo las NOTE pueden anularse.
type Entry struct {
	ID    string
	PetID string

	AppointmentID string // vacío si no aplica
	EntityID      string // turno, consulta o ficha que la originó

	Type   EntryType
	Actor  Actor
	From   string // estado previo, sólo para turnos
	To     string
	Title  string
	Notes  string
	Status EntryStatus

	OccurredAt time.Time
	RecordedAt time.Time
}
