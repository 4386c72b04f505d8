package timeline

import (
	"context"
	"strings"
	"time"
)

type Repository interface {
	Append(ctx context.Context, e Entry) error
	GetByID(ctx context.Context, id string) (Entry, error)

	// Ambos listados ordenan por occurred_at desc.
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Entry, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]Entry, error)

	Void(ctx context.Context, id string) error
}

type ListFilter struct {
	Types []EntryType
	From  *time.Time
	To    *time.Time
	Query string // busca en título y notas
	Limit int
}

func (f ListFilter) Matches(e Entry) bool {
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if e.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.From != nil && e.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.OccurredAt.After(*f.To) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(e.Title), q) && !strings.Contains(strings.ToLower(e.Notes), q) {
			return false
		}
	}
	return true
}
