package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/timeline"
)

type timelineRepo struct {
	mu   sync.RWMutex
	byID map[string]timeline.Entry
}

func NewTimelineRepo() timeline.Repository {
	return &timelineRepo{
		byID: make(map[string]timeline.Entry),
	}
}

func (r *timelineRepo) Append(ctx context.Context, e timeline.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("timeline entry id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return domain.ErrConflict
	}
	r.byID[e.ID] = e
	return nil
}

func (r *timelineRepo) GetByID(ctx context.Context, id string) (timeline.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return timeline.Entry{}, domain.ErrNotFound
	}
	return e, nil
}

func (r *timelineRepo) ListByPet(ctx context.Context, petID string, f timeline.ListFilter) ([]timeline.Entry, error) {
	return r.list(func(e timeline.Entry) bool {
		return e.PetID == petID && f.Matches(e)
	}, f.Limit), nil
}

func (r *timelineRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]timeline.Entry, error) {
	return r.list(func(e timeline.Entry) bool {
		return e.AppointmentID == appointmentID
	}, 0), nil
}

func (r *timelineRepo) Void(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = timeline.StatusVoided
	r.byID[id] = e
	return nil
}

func (r *timelineRepo) list(keep func(timeline.Entry) bool, n int) []timeline.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]timeline.Entry, 0)
	for _, e := range r.byID {
		if keep(e) {
			out = append(out, e)
		}
	}

	// occurred_at desc (más reciente primero)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return limit(out, n)
}
