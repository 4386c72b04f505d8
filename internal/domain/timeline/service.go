package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/medicalrecords"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"

	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type PetAccess interface {
	CanView(ctx context.Context, actor policy.Principal, petID string) (bool, error)
}

type AppointmentReader interface {
	Get(ctx context.Context, actor policy.Principal, id string) (appointments.Appointment, error)
}

type Service struct {
	repo  Repository
	pets  PetAccess
	appts AppointmentReader
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo Repository, pets PetAccess, appts AppointmentReader, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:  repo,
		pets:  pets,
		appts: appts,
		log:   log.With("module", "timeline"),
		now:   time.Now,
	}
}

// -------------------------
// Recorder (hooks)
// -------------------------

var appointmentTypes = map[appointments.Op]EntryType{
	appointments.OpCreated:        TypeAppointmentRequested,
	appointments.OpConfirmed:      TypeAppointmentConfirmed,
	appointments.OpCompleted:      TypeAppointmentCompleted,
	appointments.OpCancelled:      TypeAppointmentCancelled,
	appointments.OpRescheduled:    TypeAppointmentRescheduled,
	appointments.OpDetailsUpdated: TypeAppointmentUpdated,
}

func (s *Service) AppointmentChanged(ctx context.Context, ch appointments.Change) error {
	t, ok := appointmentTypes[ch.Op]
	if !ok {
		return nil
	}
	a := ch.Appointment
	occurred := ch.At
	if occurred.IsZero() {
		occurred = a.UpdatedAt
	}
	return s.append(ctx, Entry{
		PetID:         a.PetID,
		AppointmentID: a.ID,
		EntityID:      a.ID,
		Type:          t,
		Actor:         actorOf(ch.Actor),
		From:          string(ch.From),
		To:            string(a.Status),
		Title:         a.Reason,
		OccurredAt:    occurred,
	})
}

func (s *Service) ConsultationChanged(ctx context.Context, ch consultations.Change) error {
	c := ch.Consultation
	t := TypeConsultationRecorded
	occurred := c.CreatedAt
	if ch.Op == consultations.OpUpdated {
		t = TypeConsultationUpdated
		occurred = c.UpdatedAt
	}
	return s.append(ctx, Entry{
		PetID:         c.PetID,
		AppointmentID: c.AppointmentID,
		EntityID:      c.ID,
		Type:          t,
		Actor:         actorOf(ch.Actor),
		Title:         c.Diagnosis,
		OccurredAt:    occurred,
	})
}

func (s *Service) MedicalRecordChanged(ctx context.Context, ch medicalrecords.Change) error {
	m := ch.Record
	t := TypeMedicalRecordAdded
	occurred := m.VisitDate
	if ch.Op == medicalrecords.OpUpdated {
		t = TypeMedicalRecordUpdated
		occurred = m.UpdatedAt
	}
	return s.append(ctx, Entry{
		PetID:         m.PetID,
		AppointmentID: m.AppointmentID,
		EntityID:      m.ID,
		Type:          t,
		Actor:         actorOf(ch.Actor),
		Title:         m.Diagnosis,
		OccurredAt:    occurred,
	})
}

func (s *Service) append(ctx context.Context, e Entry) error {
	e.ID = uuid.NewString()
	e.Status = StatusActive
	e.RecordedAt = s.now()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = e.RecordedAt
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return fmt.Errorf("append %s entry for pet %s: %w", e.Type, e.PetID, err)
	}
	return nil
}

func actorOf(p policy.Principal) Actor {
	return Actor{ID: p.ID, Role: p.Role}
}

// -------------------------
// Notas manuales
// -------------------------

type NoteInput struct {
	OccurredAt *time.Time // nil = ahora
	Title      string
	Notes      string
}

// AddNote agrega una nota libre al historial (dueño o equipo de atención).
func (s *Service) AddNote(ctx context.Context, actor policy.Principal, petID string, in NoteInput) (Entry, error) {
	petID = strings.TrimSpace(petID)
	if err := s.checkPet(ctx, actor, petID); err != nil {
		return Entry{}, err
	}

	var v domain.Validator
	v.Check(strings.TrimSpace(in.Title) != "", "title", "required")
	if in.OccurredAt != nil {
		v.Check(!in.OccurredAt.After(s.now()), "occurred_at", "must not be in the future")
	}
	if err := v.Err(); err != nil {
		return Entry{}, err
	}

	e := Entry{
		PetID: petID,
		Type:  TypeNote,
		Actor: actorOf(actor),
		Title: strings.TrimSpace(in.Title),
		Notes: strings.TrimSpace(in.Notes),
	}
	if in.OccurredAt != nil {
		e.OccurredAt = *in.OccurredAt
	}
	if err := s.append(ctx, e); err != nil {
		return Entry{}, err
	}
	return s.repo.GetByID(ctx, e.ID)
}

// Void anula una nota propia. Las entradas del ciclo de vida son inmutables.
func (s *Service) Void(ctx context.Context, actor policy.Principal, petID, entryID string) (Entry, error) {
	petID = strings.TrimSpace(petID)
	if err := s.checkPet(ctx, actor, petID); err != nil {
		return Entry{}, err
	}

	e, err := s.repo.GetByID(ctx, strings.TrimSpace(entryID))
	if err != nil {
		return Entry{}, err
	}
	if e.PetID != petID {
		return Entry{}, domain.ErrNotFound
	}
	if e.Type != TypeNote {
		return Entry{}, fmt.Errorf("%s entries cannot be voided: %w", e.Type, domain.ErrPreconditionFailed)
	}
	if e.Actor.ID != actor.ID {
		return Entry{}, &domain.ForbiddenError{Action: "timeline:void"}
	}
	if e.Status == StatusVoided {
		return e, nil
	}

	if err := s.repo.Void(ctx, e.ID); err != nil {
		return Entry{}, fmt.Errorf("void entry %s: %w", e.ID, err)
	}
	e.Status = StatusVoided
	return e, nil
}

// -------------------------
// Lecturas
// -------------------------

func (s *Service) ListByPet(ctx context.Context, actor policy.Principal, petID string, f ListFilter) ([]Entry, error) {
	petID = strings.TrimSpace(petID)
	if err := s.checkPet(ctx, actor, petID); err != nil {
		return nil, err
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return s.repo.ListByPet(ctx, petID, f)
}

// ListByAppointment es la historia de estados de un turno, para sus participantes.
func (s *Service) ListByAppointment(ctx context.Context, actor policy.Principal, appointmentID string) ([]Entry, error) {
	a, err := s.appts.Get(ctx, actor, strings.TrimSpace(appointmentID))
	if err != nil {
		return nil, err
	}
	return s.repo.ListByAppointment(ctx, a.ID)
}

func (s *Service) checkPet(ctx context.Context, actor policy.Principal, petID string) error {
	ok, err := s.pets.CanView(ctx, actor, petID)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.ForbiddenError{Action: "pet:read", Hidden: true}
	}
	return nil
}
