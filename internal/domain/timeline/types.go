package timeline

type EntryType string

const (
	TypeAppointmentRequested   EntryType = "APPOINTMENT_REQUESTED"
	TypeAppointmentConfirmed   EntryType = "APPOINTMENT_CONFIRMED"
	TypeAppointmentCompleted   EntryType = "APPOINTMENT_COMPLETED"
	TypeAppointmentCancelled   EntryType = "APPOINTMENT_CANCELLED"
	TypeAppointmentRescheduled EntryType = "APPOINTMENT_RESCHEDULED"
	TypeAppointmentUpdated     EntryType = "APPOINTMENT_UPDATED"
	TypeConsultationRecorded   EntryType = "CONSULTATION_RECORDED"
	TypeConsultationUpdated    EntryType = "CONSULTATION_UPDATED"
	TypeMedicalRecordAdded     EntryType = "MEDICAL_RECORD_ADDED"
	TypeMedicalRecordUpdated   EntryType = "MEDICAL_RECORD_UPDATED"
	TypeNote                   EntryType = "NOTE"
)

type EntryStatus string

const (
	StatusActive EntryStatus = "active"
	StatusVoided EntryStatus = "voided"
)
