package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
)

// consultationRepo guarda consultas sin client/pet; se derivan del turno al leer.
type consultationRepo struct {
	appts *AppointmentRepo

	mu     sync.RWMutex
	byID   map[string]consultations.Consultation
	byAppt map[string]string // appointmentID -> consultationID
}

func NewConsultationRepo(appts *AppointmentRepo) consultations.Repository {
	return &consultationRepo{
		appts:  appts,
		byID:   make(map[string]consultations.Consultation),
		byAppt: make(map[string]string),
	}
}

// CreateForAppointment toma primero el lock de turnos (lectura) y después el
// propio: ningún cambio de estado del turno puede intercalarse con el insert.
func (r *consultationRepo) CreateForAppointment(ctx context.Context, c consultations.Consultation) error {
	r.appts.mu.RLock()
	defer r.appts.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appts.get(c.AppointmentID)
	if !ok {
		return domain.ErrNotFound
	}
	if a.Status != appointments.StatusCompleted {
		return domain.ErrPreconditionFailed
	}
	if a.VeterinarianID != c.VeterinarianID {
		return &domain.ForbiddenError{Action: "consultation:create"}
	}
	if _, exists := r.byAppt[c.AppointmentID]; exists {
		return domain.ErrConflict
	}

	c.ClientID, c.PetID = "", ""
	r.byID[c.ID] = c
	r.byAppt[c.AppointmentID] = c.ID
	return nil
}

func (r *consultationRepo) GetByID(ctx context.Context, id string) (consultations.Consultation, error) {
	r.mu.RLock()
	c, ok := r.byID[id]
	r.mu.RUnlock()

	if !ok {
		return consultations.Consultation{}, domain.ErrNotFound
	}
	return r.derive(ctx, c), nil
}

func (r *consultationRepo) GetByAppointment(ctx context.Context, appointmentID string) (consultations.Consultation, error) {
	r.mu.RLock()
	id, ok := r.byAppt[appointmentID]
	c := r.byID[id]
	r.mu.RUnlock()

	if !ok {
		return consultations.Consultation{}, domain.ErrNotFound
	}
	return r.derive(ctx, c), nil
}

func (r *consultationRepo) UpdateIfUnchanged(ctx context.Context, c consultations.Consultation, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if !cur.UpdatedAt.Equal(readAt) {
		return domain.ErrConflict
	}
	// turno y autor no cambian
	c.AppointmentID = cur.AppointmentID
	c.VeterinarianID = cur.VeterinarianID
	c.CreatedAt = cur.CreatedAt
	c.ClientID, c.PetID = "", ""
	r.byID[c.ID] = c
	return nil
}

func (r *consultationRepo) List(ctx context.Context, f consultations.ListFilter) ([]consultations.Consultation, error) {
	r.mu.RLock()
	all := make([]consultations.Consultation, 0, len(r.byID))
	for _, c := range r.byID {
		all = append(all, c)
	}
	r.mu.RUnlock()

	out := make([]consultations.Consultation, 0)
	for _, c := range all {
		c = r.derive(ctx, c)
		if f.Matches(c) {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return limit(out, f.Limit), nil
}

func (r *consultationRepo) derive(ctx context.Context, c consultations.Consultation) consultations.Consultation {
	if a, err := r.appts.GetByID(ctx, c.AppointmentID); err == nil {
		c.ClientID = a.ClientID
		c.PetID = a.PetID
	}
	return c
}
