package medicalrecords

import (
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

// Rangos aceptados para signos vitales.
const (
	MinTemperatureC = 30.0
	MaxTemperatureC = 45.0
	MaxWeightKg     = 500.0
)

// MedicalRecord es la ficha clínica de una visita. Puede o no estar
// anclada a un turno; si lo está, mascota y vet deben coincidir con él.
type MedicalRecord struct {
	ID             string
	PetID          string
	AppointmentID  string // opcional
	VeterinarianID string

	VisitDate time.Time

	Diagnosis    string
	Symptoms     string
	Treatment    string
	Prescription string
	Notes        string

	FollowUpRequired bool
	FollowUpDate     *time.Time

	WeightKg     *float64
	TemperatureC *float64

	// Derivado de la mascota, no se persiste.
	OwnerID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m MedicalRecord) Resource() policy.Resource {
	return policy.Resource{Kind: policy.KindMedicalRecord, ClientID: m.OwnerID, VeterinarianID: m.VeterinarianID}
}

// FollowUpPending: hay seguimiento y todavía no pasó la fecha.
func (m MedicalRecord) FollowUpPending(today time.Time) bool {
	if !m.FollowUpRequired || m.FollowUpDate == nil {
		return false
	}
	return !m.FollowUpDate.Before(today)
}

// DaysUntilFollowUp es negativo si la fecha ya pasó.
func (m MedicalRecord) DaysUntilFollowUp(today time.Time) *int {
	if m.FollowUpDate == nil {
		return nil
	}
	d := int(m.FollowUpDate.Sub(today).Hours() / 24)
	return &d
}
