package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"

	"github.com/google/uuid"
)

// PetRegistry resuelve el dueño de una mascota (getPet -> owner).
// Se define acá para no importar pets (pets depende de este paquete vía HasTreated).
type PetRegistry interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Service struct {
	repo  Repository
	pets  PetRegistry
	hooks []Hook
	log   *slog.Logger
	loc   *time.Location
	now   func() time.Time
}

func NewService(repo Repository, pets PetRegistry, log *slog.Logger, hooks ...Hook) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:  repo,
		pets:  pets,
		hooks: hooks,
		log:   log.With("module", "appointments"),
		loc:   time.UTC,
		now:   time.Now,
	}
}

// UseLocation fija la zona horaria de la clínica para calcular "hoy".
func (s *Service) UseLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// AddHook registra un hook post-commit adicional.
func (s *Service) AddHook(h Hook) {
	if h != nil {
		s.hooks = append(s.hooks, h)
	}
}

// Today es la fecha calendario actual en la zona de la clínica.
func (s *Service) Today() time.Time {
	return DateOf(s.now().In(s.loc))
}

type CreateInput struct {
	ClientID       string // vacío = el actor
	VeterinarianID string
	PetID          string
	Date           time.Time
	Time           *Clock
	Reason         string
	Notes          string
}

func (s *Service) Create(ctx context.Context, actor policy.Principal, in CreateInput) (Appointment, error) {
	in.ClientID = strings.TrimSpace(in.ClientID)
	if in.ClientID == "" {
		in.ClientID = actor.ID
	}
	in.VeterinarianID = strings.TrimSpace(in.VeterinarianID)
	in.PetID = strings.TrimSpace(in.PetID)

	res := policy.Resource{Kind: policy.KindAppointment, ClientID: in.ClientID, VeterinarianID: in.VeterinarianID}
	if err := policy.Check(actor, policy.ActionCreate, res); err != nil {
		return Appointment{}, err
	}

	today := s.Today()
	var v domain.Validator
	v.Check(in.VeterinarianID != "", "veterinarian_id", "required")
	v.Check(in.VeterinarianID != in.ClientID, "veterinarian_id", "must differ from client")
	v.Check(in.PetID != "", "pet_id", "required")
	v.Check(!in.Date.IsZero(), "date", "required")
	if !in.Date.IsZero() && DateOf(in.Date).Before(today) {
		v.Add("date", "must not be in the past")
	}
	if in.PetID != "" {
		if err := s.checkPetOwner(ctx, in.PetID, in.ClientID, &v); err != nil {
			return Appointment{}, err
		}
	}
	if err := v.Err(); err != nil {
		return Appointment{}, err
	}

	now := s.now()
	a := Appointment{
		ID:             uuid.NewString(),
		ClientID:       in.ClientID,
		VeterinarianID: in.VeterinarianID,
		PetID:          in.PetID,
		Date:           DateOf(in.Date),
		Time:           in.Time,
		Reason:         strings.TrimSpace(in.Reason),
		Notes:          strings.TrimSpace(in.Notes),
		Status:         StatusPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	s.emit(ctx, Change{Op: OpCreated, Actor: actor, Appointment: a, At: now})
	return a, nil
}

// ConfirmInput: nil = conservar el valor actual.
type ConfirmInput struct {
	Date *time.Time
	Time *Clock
}

func (s *Service) Confirm(ctx context.Context, actor policy.Principal, id string, in ConfirmInput) (Appointment, error) {
	return s.mutate(ctx, actor, id, policy.ActionUpdateStatus, OpConfirmed, func(a *Appointment) error {
		if err := checkTransition(a.Status, StatusConfirmed); err != nil {
			return err
		}
		if in.Date != nil {
			a.Date = DateOf(*in.Date)
		}
		if in.Time != nil {
			t := *in.Time
			a.Time = &t
		}
		if err := s.validate(ctx, *a, in.Date != nil); err != nil {
			return err
		}
		a.Status = StatusConfirmed
		return nil
	})
}

func (s *Service) Complete(ctx context.Context, actor policy.Principal, id string) (Appointment, error) {
	return s.mutate(ctx, actor, id, policy.ActionUpdateStatus, OpCompleted, func(a *Appointment) error {
		if err := checkTransition(a.Status, StatusCompleted); err != nil {
			return err
		}
		now := s.now()
		a.Status = StatusCompleted
		a.CompletedAt = &now
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, actor policy.Principal, id string) (Appointment, error) {
	return s.mutate(ctx, actor, id, policy.ActionCancel, OpCancelled, func(a *Appointment) error {
		if err := checkTransition(a.Status, StatusCancelled); err != nil {
			return err
		}
		now := s.now()
		a.Status = StatusCancelled
		a.CancelledBy = actor.ID
		a.CancelledAt = &now
		return nil
	})
}

// DetailsPatch: punteros nil = no tocar. ClearTime borra la hora.
type DetailsPatch struct {
	Date      *time.Time
	Time      *Clock
	ClearTime bool
	Reason    *string
	Notes     *string
}

func (p DetailsPatch) reschedules() bool {
	return p.Date != nil || p.Time != nil || p.ClearTime
}

// UpdateDetails edita fecha/hora/notas. Sólo en PENDING o CONFIRMED.
func (s *Service) UpdateDetails(ctx context.Context, actor policy.Principal, id string, patch DetailsPatch) (Appointment, error) {
	op := OpDetailsUpdated
	if patch.reschedules() {
		op = OpRescheduled
	}
	return s.mutate(ctx, actor, id, policy.ActionUpdateDetails, op, func(a *Appointment) error {
		if a.Status.Terminal() {
			return &domain.TransitionError{Entity: "appointment", From: string(a.Status), To: string(a.Status)}
		}
		if patch.Date != nil {
			a.Date = DateOf(*patch.Date)
		}
		switch {
		case patch.ClearTime:
			a.Time = nil
		case patch.Time != nil:
			t := *patch.Time
			a.Time = &t
		}
		if patch.Reason != nil {
			a.Reason = strings.TrimSpace(*patch.Reason)
		}
		if patch.Notes != nil {
			a.Notes = strings.TrimSpace(*patch.Notes)
		}
		return s.validate(ctx, *a, patch.Date != nil)
	})
}

func (s *Service) Get(ctx context.Context, actor policy.Principal, id string) (Appointment, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Appointment{}, err
	}
	if err := policy.Check(actor, policy.ActionRead, a.Resource()); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// ListQuery son los filtros que puede pedir un caller; el alcance lo pone el principal.
type ListQuery struct {
	Status   Status
	Upcoming bool
	PetID    string
	Limit    int
}

// List nunca falla por autorización: devuelve sólo lo que el principal puede ver.
func (s *Service) List(ctx context.Context, actor policy.Principal, q ListQuery) ([]Appointment, error) {
	f := ListFilter{PetID: strings.TrimSpace(q.PetID), Limit: q.Limit}
	switch {
	case !actor.Valid():
		return []Appointment{}, nil
	case actor.IsClient():
		f.ClientID = actor.ID
	case actor.IsVeterinarian():
		f.VeterinarianID = actor.ID
	}
	if q.Status != "" {
		f.Statuses = []Status{q.Status}
	}
	if q.Upcoming {
		today := s.Today()
		f.Statuses = []Status{StatusConfirmed}
		f.FromDate = &today
	}
	return s.repo.List(ctx, f)
}

// HasTreated indica si el vet tiene (o tuvo) un turno no cancelado con la mascota.
func (s *Service) HasTreated(ctx context.Context, vetID, petID string) (bool, error) {
	if strings.TrimSpace(vetID) == "" || strings.TrimSpace(petID) == "" {
		return false, nil
	}
	items, err := s.repo.List(ctx, ListFilter{
		VeterinarianID: vetID,
		PetID:          petID,
		Statuses:       []Status{StatusPending, StatusConfirmed, StatusCompleted},
		Limit:          1,
	})
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

// mutate relee el turno, autoriza, aplica fn y escribe condicionado a la versión leída.
func (s *Service) mutate(ctx context.Context, actor policy.Principal, id string, action policy.Action, op Op, fn func(a *Appointment) error) (Appointment, error) {
	cur, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Appointment{}, err
	}
	if err := policy.Check(actor, action, cur.Resource()); err != nil {
		return Appointment{}, err
	}

	next := cur
	if err := fn(&next); err != nil {
		return Appointment{}, err
	}
	next.Version = cur.Version + 1
	next.UpdatedAt = s.now()

	if err := s.repo.UpdateIfVersion(ctx, next, cur.Version); err != nil {
		return Appointment{}, fmt.Errorf("%s appointment %s: %w", op, cur.ID, err)
	}

	s.emit(ctx, Change{Op: op, Actor: actor, From: cur.Status, Appointment: next, At: next.UpdatedAt})
	return next, nil
}

// validate re-chequea los invariantes de la entidad antes de escribir.
func (s *Service) validate(ctx context.Context, a Appointment, dateChanged bool) error {
	var v domain.Validator
	v.Check(a.ClientID != a.VeterinarianID, "veterinarian_id", "must differ from client")
	if dateChanged && a.Date.Before(s.Today()) {
		v.Add("date", "must not be in the past")
	}
	if err := s.checkPetOwner(ctx, a.PetID, a.ClientID, &v); err != nil {
		return err
	}
	return v.Err()
}

func (s *Service) checkPetOwner(ctx context.Context, petID, clientID string, v *domain.Validator) error {
	owner, err := s.pets.OwnerOf(ctx, petID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("pet %s: %w", petID, domain.ErrNotFound)
		}
		return fmt.Errorf("resolve pet owner: %w", err)
	}
	v.Check(owner == clientID, "pet_id", "pet does not belong to client")
	return nil
}

func (s *Service) emit(ctx context.Context, ch Change) {
	for _, h := range s.hooks {
		if err := h.AppointmentChanged(ctx, ch); err != nil {
			s.log.WarnContext(ctx, "appointment hook failed",
				"appointment_id", ch.Appointment.ID,
				"op", string(ch.Op),
				"error", err,
			)
		}
	}
}
