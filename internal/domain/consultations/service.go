package consultations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"

	"github.com/google/uuid"
)

// AppointmentReader es la vista del Appointment Engine que necesita este módulo.
// Get ya aplica la regla de lectura (hidden forbidden para quien no participa).
type AppointmentReader interface {
	Get(ctx context.Context, actor policy.Principal, id string) (appointments.Appointment, error)
	Today() time.Time
}

type Service struct {
	repo  Repository
	appts AppointmentReader
	hooks []Hook
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo Repository, appts AppointmentReader, log *slog.Logger, hooks ...Hook) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:  repo,
		appts: appts,
		hooks: hooks,
		log:   log.With("module", "consultations"),
		now:   time.Now,
	}
}

func (s *Service) AddHook(h Hook) {
	if h != nil {
		s.hooks = append(s.hooks, h)
	}
}

type CreateInput struct {
	AppointmentID    string
	Diagnosis        string
	Symptoms         string
	Notes            string
	Prescription     string
	FollowUpRequired bool
	FollowUpDate     *time.Time
}

// Create registra la consulta de un turno. Orden de chequeos:
// turno inexistente o invisible, no COMPLETED, ya consultado, actor no es el vet, validación.
func (s *Service) Create(ctx context.Context, actor policy.Principal, in CreateInput) (Consultation, error) {
	a, err := s.appts.Get(ctx, actor, strings.TrimSpace(in.AppointmentID))
	if err != nil {
		return Consultation{}, err
	}

	if a.Status != appointments.StatusCompleted {
		return Consultation{}, fmt.Errorf("appointment %s is %s: %w", a.ID, a.Status, domain.ErrPreconditionFailed)
	}

	if _, err := s.repo.GetByAppointment(ctx, a.ID); err == nil {
		return Consultation{}, fmt.Errorf("appointment %s already has a consultation: %w", a.ID, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return Consultation{}, err
	}

	res := policy.Resource{Kind: policy.KindConsultation, ClientID: a.ClientID, VeterinarianID: a.VeterinarianID}
	if err := policy.Check(actor, policy.ActionCreate, res); err != nil {
		return Consultation{}, err
	}

	var v domain.Validator
	v.Check(strings.TrimSpace(in.Diagnosis) != "", "diagnosis", "required")
	s.checkFollowUp(&v, in.FollowUpRequired, in.FollowUpDate)
	if err := v.Err(); err != nil {
		return Consultation{}, err
	}

	now := s.now()
	c := Consultation{
		ID:               uuid.NewString(),
		AppointmentID:    a.ID,
		VeterinarianID:   a.VeterinarianID,
		Diagnosis:        strings.TrimSpace(in.Diagnosis),
		Symptoms:         strings.TrimSpace(in.Symptoms),
		Notes:            strings.TrimSpace(in.Notes),
		Prescription:     strings.TrimSpace(in.Prescription),
		FollowUpRequired: in.FollowUpRequired,
		FollowUpDate:     dateOnly(in.FollowUpDate),
		ClientID:         a.ClientID,
		PetID:            a.PetID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// El repo vuelve a chequear estado y unicidad al escribir.
	if err := s.repo.CreateForAppointment(ctx, c); err != nil {
		return Consultation{}, fmt.Errorf("create consultation: %w", err)
	}

	s.emit(ctx, Change{Op: OpCreated, Actor: actor, Consultation: c})
	return c, nil
}

// Patch: nil = no tocar. El turno asociado no se puede cambiar.
type Patch struct {
	Diagnosis         *string
	Symptoms          *string
	Notes             *string
	Prescription      *string
	FollowUpRequired  *bool
	FollowUpDate      *time.Time
	ClearFollowUpDate bool
}

func (s *Service) Update(ctx context.Context, actor policy.Principal, id string, p Patch) (Consultation, error) {
	c, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Consultation{}, err
	}
	if err := policy.Check(actor, policy.ActionUpdate, c.Resource()); err != nil {
		return Consultation{}, err
	}

	if p.Diagnosis != nil {
		c.Diagnosis = strings.TrimSpace(*p.Diagnosis)
	}
	if p.Symptoms != nil {
		c.Symptoms = strings.TrimSpace(*p.Symptoms)
	}
	if p.Notes != nil {
		c.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.Prescription != nil {
		c.Prescription = strings.TrimSpace(*p.Prescription)
	}
	if p.FollowUpRequired != nil {
		c.FollowUpRequired = *p.FollowUpRequired
	}
	switch {
	case p.ClearFollowUpDate:
		c.FollowUpDate = nil
	case p.FollowUpDate != nil:
		c.FollowUpDate = dateOnly(p.FollowUpDate)
	}

	var v domain.Validator
	v.Check(c.Diagnosis != "", "diagnosis", "required")
	s.checkFollowUp(&v, c.FollowUpRequired, c.FollowUpDate)
	if err := v.Err(); err != nil {
		return Consultation{}, err
	}

	readAt := c.UpdatedAt
	c.UpdatedAt = s.now()
	if err := s.repo.UpdateIfUnchanged(ctx, c, readAt); err != nil {
		return Consultation{}, fmt.Errorf("update consultation %s: %w", c.ID, err)
	}

	s.emit(ctx, Change{Op: OpUpdated, Actor: actor, Consultation: c})
	return c, nil
}

func (s *Service) Get(ctx context.Context, actor policy.Principal, id string) (Consultation, error) {
	c, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Consultation{}, err
	}
	if err := policy.Check(actor, policy.ActionRead, c.Resource()); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

// GetByAppointment devuelve la consulta de un turno visible para el actor.
func (s *Service) GetByAppointment(ctx context.Context, actor policy.Principal, appointmentID string) (Consultation, error) {
	a, err := s.appts.Get(ctx, actor, strings.TrimSpace(appointmentID))
	if err != nil {
		return Consultation{}, err
	}
	c, err := s.repo.GetByAppointment(ctx, a.ID)
	if err != nil {
		return Consultation{}, err
	}
	if err := policy.Check(actor, policy.ActionRead, c.Resource()); err != nil {
		return Consultation{}, err
	}
	return c, nil
}

type ListQuery struct {
	FollowUpOnly bool
	PetID        string
	Limit        int
}

// List: el vet ve las que escribió, el cliente las de sus turnos. Nunca falla por permisos.
func (s *Service) List(ctx context.Context, actor policy.Principal, q ListQuery) ([]Consultation, error) {
	f := ListFilter{FollowUpOnly: q.FollowUpOnly, PetID: strings.TrimSpace(q.PetID), Limit: q.Limit}
	switch {
	case !actor.Valid():
		return []Consultation{}, nil
	case actor.IsClient():
		f.ClientID = actor.ID
	case actor.IsVeterinarian():
		f.VeterinarianID = actor.ID
	}
	return s.repo.List(ctx, f)
}

func (s *Service) checkFollowUp(v *domain.Validator, required bool, date *time.Time) {
	if !required {
		return
	}
	if date == nil {
		v.Add("follow_up_date", "required when follow_up_required is true")
		return
	}
	if !appointments.DateOf(*date).After(s.appts.Today()) {
		v.Add("follow_up_date", "must be after today")
	}
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := appointments.DateOf(*t)
	return &d
}

func (s *Service) emit(ctx context.Context, ch Change) {
	for _, h := range s.hooks {
		if err := h.ConsultationChanged(ctx, ch); err != nil {
			s.log.WarnContext(ctx, "consultation hook failed",
				"consultation_id", ch.Consultation.ID,
				"op", string(ch.Op),
				"error", err,
			)
		}
	}
}
