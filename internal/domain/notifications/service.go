package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/medicalrecords"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Service es el inbox in-app y, a la vez, el dispatcher que escucha los
// cambios de turnos, consultas y fichas para avisar al otro participante.
type Service struct {
	repo Repository
	pub  Publisher
	log  *slog.Logger
	now  func() time.Time

	publishTimeout time.Duration
	inflight       sync.WaitGroup
}

const defaultPublishTimeout = 5 * time.Second

func NewService(repo Repository, pub Publisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:           repo,
		pub:            pub,
		log:            log.With("module", "notifications"),
		now:            time.Now,
		publishTimeout: defaultPublishTimeout,
	}
}

// UsePublishTimeout acota cada publicación en segundo plano.
func (s *Service) UsePublishTimeout(d time.Duration) {
	if d > 0 {
		s.publishTimeout = d
	}
}

// Wait bloquea hasta que terminen las publicaciones en curso (shutdown, tests).
func (s *Service) Wait() {
	s.inflight.Wait()
}

// -------------------------
// Dispatcher (hooks)
// -------------------------

func (s *Service) AppointmentChanged(ctx context.Context, ch appointments.Change) error {
	a := ch.Appointment
	when := a.Date.Format(time.DateOnly)
	if a.Time != nil {
		when += " " + a.Time.String()
	}

	var title, msg string
	switch ch.Op {
	case appointments.OpCreated:
		title = "New appointment request"
		msg = fmt.Sprintf("You have a new appointment request for %s.", when)
	case appointments.OpConfirmed:
		title = "Appointment confirmed"
		msg = fmt.Sprintf("Your appointment on %s has been confirmed.", when)
	case appointments.OpCompleted:
		title = "Appointment completed"
		msg = "Your appointment has been marked as completed."
	case appointments.OpCancelled:
		title = "Appointment cancelled"
		msg = fmt.Sprintf("The appointment on %s has been cancelled.", when)
	case appointments.OpRescheduled:
		title = "Appointment rescheduled"
		msg = fmt.Sprintf("The appointment has been moved to %s.", when)
	case appointments.OpDetailsUpdated:
		title = "Appointment updated"
		msg = "The appointment details have been updated."
	default:
		return nil
	}

	return s.deliver(ctx, s.build(TypeAppointment, ch.Actor.ID, a.ID, title, msg,
		others(ch.Actor.ID, a.ClientID, a.VeterinarianID)...))
}

func (s *Service) ConsultationChanged(ctx context.Context, ch consultations.Change) error {
	c := ch.Consultation
	var title, msg string
	switch ch.Op {
	case consultations.OpCreated:
		title = "Consultation summary available"
		msg = "Your veterinarian has recorded the consultation for your appointment."
	case consultations.OpUpdated:
		title = "Consultation updated"
		msg = "Your veterinarian has updated a consultation."
	default:
		return nil
	}
	if c.FollowUpRequired && c.FollowUpDate != nil {
		msg += fmt.Sprintf(" A follow-up is required on %s.", c.FollowUpDate.Format(time.DateOnly))
	}

	return s.deliver(ctx, s.build(TypeConsultation, ch.Actor.ID, c.ID, title, msg,
		others(ch.Actor.ID, c.ClientID)...))
}

func (s *Service) MedicalRecordChanged(ctx context.Context, ch medicalrecords.Change) error {
	if ch.Op != medicalrecords.OpCreated {
		return nil
	}
	m := ch.Record
	return s.deliver(ctx, s.build(TypeMedicalRecord, ch.Actor.ID, m.ID,
		"New medical record",
		fmt.Sprintf("A medical record from %s was added to your pet's history.", m.VisitDate.Format(time.DateOnly)),
		others(ch.Actor.ID, m.OwnerID)...))
}

func (s *Service) build(t Type, sender, entityID, title, msg string, recipients ...string) []Notification {
	now := s.now()
	out := make([]Notification, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, Notification{
			ID:          uuid.NewString(),
			RecipientID: r,
			SenderID:    sender,
			Type:        t,
			Title:       title,
			Message:     msg,
			EntityID:    entityID,
			CreatedAt:   now,
		})
	}
	return out
}

// deliver guarda las entradas del inbox dentro del request y publica fuera
// de él. Cada destinatario es independiente: un fallo no corta a los demás.
func (s *Service) deliver(ctx context.Context, items []Notification) error {
	var g errgroup.Group
	for _, n := range items {
		g.Go(func() error {
			if err := s.repo.Create(ctx, n); err != nil {
				return fmt.Errorf("store notification for %s: %w", n.RecipientID, err)
			}
			s.publish(ctx, n)
			return nil
		})
	}
	return g.Wait()
}

// publish no bloquea al llamador; los errores sólo se loguean.
func (s *Service) publish(ctx context.Context, n Notification) {
	if s.pub == nil {
		return
	}
	pctx := context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		pctx, cancel := context.WithTimeout(pctx, s.publishTimeout)
		defer cancel()

		if err := s.pub.Publish(pctx, n); err != nil {
			s.log.WarnContext(pctx, "publish notification failed",
				"notification_id", n.ID,
				"recipient_id", n.RecipientID,
				"error", err,
			)
		}
	}()
}

// others devuelve los participantes distintos del actor, sin vacíos ni repetidos.
func others(actor string, ids ...string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]bool{actor: true, "": true}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// -------------------------
// Inbox
// -------------------------

type ListQuery struct {
	UnreadOnly bool
	Limit      int
}

func (s *Service) ListMine(ctx context.Context, actor policy.Principal, q ListQuery) ([]Notification, error) {
	if !actor.Valid() {
		return []Notification{}, nil
	}
	return s.repo.ListByRecipient(ctx, actor.ID, q.UnreadOnly, q.Limit)
}

// MarkRead marca como leída una notificación propia. Las ajenas se reportan como NotFound.
func (s *Service) MarkRead(ctx context.Context, actor policy.Principal, id string) (Notification, error) {
	n, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Notification{}, err
	}
	if !actor.Valid() || n.RecipientID != actor.ID {
		return Notification{}, &domain.ForbiddenError{Action: "notification:read", Hidden: true}
	}
	if n.Read {
		return n, nil
	}

	now := s.now()
	if err := s.repo.MarkRead(ctx, n.ID, now); err != nil {
		return Notification{}, fmt.Errorf("mark notification %s read: %w", n.ID, err)
	}
	n.Read = true
	n.ReadAt = &now
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, actor policy.Principal) (int, error) {
	if !actor.Valid() {
		return 0, domain.ErrUnauthorized
	}
	return s.repo.MarkAllRead(ctx, actor.ID, s.now())
}
