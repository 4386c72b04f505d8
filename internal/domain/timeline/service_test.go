package timeline

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
)

// -------------------------
// Test doubles
// -------------------------

type testRepo struct {
	byID map[string]Entry
}

func (r *testRepo) Append(ctx context.Context, e Entry) error {
	r.byID[e.ID] = e
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	e, ok := r.byID[id]
	if !ok {
		return Entry{}, domain.ErrNotFound
	}
	return e, nil
}

func (r *testRepo) list(keep func(Entry) bool) []Entry {
	out := make([]Entry, 0)
	for _, e := range r.byID {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out
}

func (r *testRepo) ListByPet(ctx context.Context, petID string, f ListFilter) ([]Entry, error) {
	return r.list(func(e Entry) bool { return e.PetID == petID && f.Matches(e) }), nil
}

func (r *testRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]Entry, error) {
	return r.list(func(e Entry) bool { return e.AppointmentID == appointmentID }), nil
}

func (r *testRepo) Void(ctx context.Context, id string) error {
	e, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = StatusVoided
	r.byID[id] = e
	return nil
}

// testPets: viewers por mascota.
type testPets map[string][]string

func (p testPets) CanView(ctx context.Context, actor policy.Principal, petID string) (bool, error) {
	viewers, ok := p[petID]
	if !ok {
		return false, domain.ErrNotFound
	}
	for _, v := range viewers {
		if v == actor.ID {
			return true, nil
		}
	}
	return false, nil
}

type testAppts map[string]appointments.Appointment

func (a testAppts) Get(ctx context.Context, actor policy.Principal, id string) (appointments.Appointment, error) {
	ap, ok := a[id]
	if !ok {
		return appointments.Appointment{}, domain.ErrNotFound
	}
	if err := policy.Check(actor, policy.ActionRead, ap.Resource()); err != nil {
		return appointments.Appointment{}, err
	}
	return ap, nil
}

var (
	clientC = policy.Client("client-c")
	vetV    = policy.Veterinarian("vet-v")
	fixed   = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
)

func newTestService(t *testing.T) (*Service, *testRepo, appointments.Appointment) {
	t.Helper()
	a := appointments.Appointment{
		ID: "appt-1", ClientID: clientC.ID, VeterinarianID: vetV.ID, PetID: "pet-p",
		Reason: "ear infection", Status: appointments.StatusPending,
	}
	repo := &testRepo{byID: map[string]Entry{}}
	svc := NewService(repo, testPets{"pet-p": {clientC.ID, vetV.ID}}, testAppts{a.ID: a}, nil)
	svc.now = func() time.Time { return fixed }
	return svc, repo, a
}

// -------------------------
// Tests
// -------------------------

func TestService_RecordsAppointmentLifecycle(t *testing.T) {
	svc, _, a := newTestService(t)
	ctx := context.Background()

	steps := []struct {
		op   appointments.Op
		from appointments.Status
		to   appointments.Status
	}{
		{appointments.OpCreated, "", appointments.StatusPending},
		{appointments.OpConfirmed, appointments.StatusPending, appointments.StatusConfirmed},
		{appointments.OpCompleted, appointments.StatusConfirmed, appointments.StatusCompleted},
	}
	for i, st := range steps {
		a.Status = st.to
		at := fixed.Add(time.Duration(i) * time.Hour)
		if err := svc.AppointmentChanged(ctx, appointments.Change{Op: st.op, Actor: vetV, From: st.from, Appointment: a, At: at}); err != nil {
			t.Fatalf("append %s: %v", st.op, err)
		}
	}
	_ = svc.ConsultationChanged(ctx, consultations.Change{
		Op:    consultations.OpCreated,
		Actor: vetV,
		Consultation: consultations.Consultation{
			ID: "cons-1", AppointmentID: a.ID, PetID: a.PetID, Diagnosis: "otitis", CreatedAt: fixed.Add(4 * time.Hour),
		},
	})

	history, err := svc.ListByAppointment(ctx, clientC, a.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []EntryType{TypeConsultationRecorded, TypeAppointmentCompleted, TypeAppointmentConfirmed, TypeAppointmentRequested}
	if len(history) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(history))
	}
	for i, e := range history {
		if e.Type != want[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, want[i], e.Type)
		}
	}
	if history[1].From != string(appointments.StatusConfirmed) || history[1].To != string(appointments.StatusCompleted) {
		t.Fatalf("unexpected transition on completed entry: %+v", history[1])
	}

	if _, err := svc.ListByAppointment(ctx, policy.Client("client-z"), a.ID); !domain.IsHidden(err) {
		t.Fatalf("expected hidden denial, got %v", err)
	}
}

func TestService_ListByPet_FiltersAndAccess(t *testing.T) {
	svc, _, a := newTestService(t)
	ctx := context.Background()
	_ = svc.AppointmentChanged(ctx, appointments.Change{Op: appointments.OpCreated, Actor: clientC, Appointment: a, At: fixed})
	if _, err := svc.AddNote(ctx, clientC, "pet-p", NoteInput{Title: "Started new food"}); err != nil {
		t.Fatalf("add note: %v", err)
	}

	all, err := svc.ListByPet(ctx, vetV, "pet-p", ListFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d err=%v", len(all), err)
	}
	notes, _ := svc.ListByPet(ctx, clientC, "pet-p", ListFilter{Types: []EntryType{TypeNote}})
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	byText, _ := svc.ListByPet(ctx, clientC, "pet-p", ListFilter{Query: "EAR"})
	if len(byText) != 1 || byText[0].Type != TypeAppointmentRequested {
		t.Fatalf("unexpected text search result: %+v", byText)
	}

	if _, err := svc.ListByPet(ctx, policy.Veterinarian("vet-other"), "pet-p", ListFilter{}); !domain.IsHidden(err) {
		t.Fatalf("expected hidden denial, got %v", err)
	}
}

func TestService_Void(t *testing.T) {
	svc, repo, a := newTestService(t)
	ctx := context.Background()

	note, err := svc.AddNote(ctx, clientC, "pet-p", NoteInput{Title: "Vomited once"})
	if err != nil {
		t.Fatalf("add note: %v", err)
	}

	if _, err := svc.Void(ctx, vetV, "pet-p", note.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-author, got %v", err)
	}
	got, err := svc.Void(ctx, clientC, "pet-p", note.ID)
	if err != nil || got.Status != StatusVoided {
		t.Fatalf("void: %+v err=%v", got, err)
	}

	_ = svc.AppointmentChanged(ctx, appointments.Change{Op: appointments.OpCreated, Actor: clientC, Appointment: a, At: fixed})
	var lifecycleID string
	for id, e := range repo.byID {
		if e.Type == TypeAppointmentRequested {
			lifecycleID = id
		}
	}
	if _, err := svc.Void(ctx, clientC, "pet-p", lifecycleID); !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected lifecycle entries to be immutable, got %v", err)
	}
}

func TestService_AddNote_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	future := fixed.Add(time.Hour)

	_, err := svc.AddNote(context.Background(), clientC, "pet-p", NoteInput{OccurredAt: &future})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || !verr.HasField("title") || !verr.HasField("occurred_at") {
		t.Fatalf("expected title and occurred_at errors, got %v", err)
	}
}
