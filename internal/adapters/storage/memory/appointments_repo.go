package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
)

// AppointmentRepo se exporta porque el repo de consultas lo necesita para
// el chequeo atómico de estado al insertar.
type AppointmentRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Appointment
}

func NewAppointmentRepo() *AppointmentRepo {
	return &AppointmentRepo{
		byID: make(map[string]appointments.Appointment),
	}
}

func (r *AppointmentRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return domain.ErrConflict
	}
	r.byID[a.ID] = a
	return nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *AppointmentRepo) UpdateIfVersion(ctx context.Context, a appointments.Appointment, expected int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expected {
		return domain.ErrConflict
	}
	r.byID[a.ID] = a
	return nil
}

func (r *AppointmentRepo) List(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if f.Matches(a) {
			out = append(out, a)
		}
	}

	// date desc, luego created_at desc
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return limit(out, f.Limit), nil
}

// get lee sin tomar el lock; el caller ya lo tiene.
func (r *AppointmentRepo) get(id string) (appointments.Appointment, bool) {
	a, ok := r.byID[id]
	return a, ok
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
