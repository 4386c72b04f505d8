package notifications

import "time"

// Type agrupa notificaciones por la entidad que las originó.
// @Enum appointment, consultation, medical_record, system
type Type string

const (
	TypeAppointment   Type = "appointment"
	TypeConsultation  Type = "consultation"
	TypeMedicalRecord Type = "medical_record"
	TypeSystem        Type = "system"
)

// Notification es una entrada del inbox in-app de un usuario.
type Notification struct {
	ID          string
	RecipientID string
	SenderID    string // vacío para TypeSystem

	Type     Type
	Title    string
	Message  string
	EntityID string

	Read   bool
	ReadAt *time.Time

	CreatedAt time.Time
}
