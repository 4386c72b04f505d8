package consultations

import (
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

// Consultation es el registro clínico de un turno COMPLETED (1:1).
type Consultation struct {
	ID             string
	AppointmentID  string
	VeterinarianID string

	Diagnosis    string
	Symptoms     string
	Notes        string
	Prescription string

	FollowUpRequired bool
	FollowUpDate     *time.Time // fecha calendario

	// Derivados del turno: el repo los completa al leer, nunca se persisten.
	ClientID string
	PetID    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Consultation) Resource() policy.Resource {
	return policy.Resource{
		Kind:           policy.KindConsultation,
		ClientID:       c.ClientID,
		VeterinarianID: c.VeterinarianID,
	}
}
