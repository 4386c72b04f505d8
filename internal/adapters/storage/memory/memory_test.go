package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/timeline"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func seedAppointment(t *testing.T, repo *AppointmentRepo, status appointments.Status) appointments.Appointment {
	t.Helper()
	a := appointments.Appointment{
		ID: "appt-1", ClientID: "client-c", VeterinarianID: "vet-v", PetID: "pet-p",
		Date: day, Status: status, Version: 1, CreatedAt: day,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return a
}

func TestAppointmentRepo_UpdateIfVersion(t *testing.T) {
	repo := NewAppointmentRepo()
	a := seedAppointment(t, repo, appointments.StatusPending)
	ctx := context.Background()

	a.Status = appointments.StatusConfirmed
	a.Version = 2
	if err := repo.UpdateIfVersion(ctx, a, 1); err != nil {
		t.Fatalf("first update: %v", err)
	}
	// misma versión esperada: perdió la carrera
	if err := repo.UpdateIfVersion(ctx, a, 1); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	a.ID = "missing"
	if err := repo.UpdateIfVersion(ctx, a, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointmentRepo_List_FilterAndLimit(t *testing.T) {
	repo := NewAppointmentRepo()
	ctx := context.Background()
	for i, st := range []appointments.Status{appointments.StatusPending, appointments.StatusConfirmed, appointments.StatusConfirmed} {
		_ = repo.Create(ctx, appointments.Appointment{
			ID: string(rune('a' + i)), ClientID: "client-c", VeterinarianID: "vet-v",
			Date: day.AddDate(0, 0, i), Status: st,
		})
	}

	got, _ := repo.List(ctx, appointments.ListFilter{ClientID: "client-c", Statuses: []appointments.Status{appointments.StatusConfirmed}, Limit: 1})
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("expected latest confirmed appointment, got %+v", got)
	}
}

func TestConsultationRepo_CreateForAppointment(t *testing.T) {
	appts := NewAppointmentRepo()
	seedAppointment(t, appts, appointments.StatusCompleted)
	repo := NewConsultationRepo(appts)
	ctx := context.Background()

	c := consultations.Consultation{ID: "cons-1", AppointmentID: "appt-1", VeterinarianID: "vet-v", Diagnosis: "otitis"}
	if err := repo.CreateForAppointment(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByAppointment(ctx, "appt-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ClientID != "client-c" || got.PetID != "pet-p" {
		t.Fatalf("expected derived client/pet, got %+v", got)
	}

	c.ID = "cons-2"
	if err := repo.CreateForAppointment(ctx, c); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	c.VeterinarianID = "vet-other"
	if err := repo.CreateForAppointment(ctx, c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestConsultationRepo_RejectsNonCompleted(t *testing.T) {
	appts := NewAppointmentRepo()
	seedAppointment(t, appts, appointments.StatusConfirmed)
	repo := NewConsultationRepo(appts)

	err := repo.CreateForAppointment(context.Background(), consultations.Consultation{ID: "cons-1", AppointmentID: "appt-1", VeterinarianID: "vet-v"})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	_, err = repo.GetByAppointment(context.Background(), "appt-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("nothing must be stored, got %v", err)
	}
}

func TestConsultationRepo_UpdateIfUnchanged(t *testing.T) {
	appts := NewAppointmentRepo()
	seedAppointment(t, appts, appointments.StatusCompleted)
	repo := NewConsultationRepo(appts)
	ctx := context.Background()

	c := consultations.Consultation{ID: "cons-1", AppointmentID: "appt-1", VeterinarianID: "vet-v", Diagnosis: "otitis", UpdatedAt: day}
	if err := repo.CreateForAppointment(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Dos editores leyeron la misma versión.
	first, second := c, c
	first.Prescription = "amoxicillin"
	first.UpdatedAt = day.Add(time.Minute)
	second.Notes = "recheck in two weeks"
	second.UpdatedAt = day.Add(2 * time.Minute)

	if err := repo.UpdateIfUnchanged(ctx, first, day); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := repo.UpdateIfUnchanged(ctx, second, day); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale writer, got %v", err)
	}

	got, _ := repo.GetByID(ctx, "cons-1")
	if got.Prescription != "amoxicillin" || got.Notes != "" {
		t.Fatalf("stale write leaked: %+v", got)
	}

	second.ID = "missing"
	if err := repo.UpdateIfUnchanged(ctx, second, day); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConsultationRepo_ConcurrentCreate_OneWins(t *testing.T) {
	appts := NewAppointmentRepo()
	seedAppointment(t, appts, appointments.StatusCompleted)
	repo := NewConsultationRepo(appts)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.CreateForAppointment(context.Background(), consultations.Consultation{
				ID: string(rune('A' + i)), AppointmentID: "appt-1", VeterinarianID: "vet-v",
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestTimelineRepo_OrderAndVoid(t *testing.T) {
	repo := NewTimelineRepo()
	ctx := context.Background()
	for i, typ := range []timeline.EntryType{timeline.TypeAppointmentRequested, timeline.TypeAppointmentConfirmed} {
		_ = repo.Append(ctx, timeline.Entry{
			ID: string(rune('a' + i)), PetID: "pet-p", AppointmentID: "appt-1", Type: typ,
			OccurredAt: day.Add(time.Duration(i) * time.Hour), Status: timeline.StatusActive,
		})
	}

	got, _ := repo.ListByAppointment(ctx, "appt-1")
	if len(got) != 2 || got[0].Type != timeline.TypeAppointmentConfirmed {
		t.Fatalf("expected newest first, got %+v", got)
	}
	if err := repo.Void(ctx, "a"); err != nil {
		t.Fatalf("void: %v", err)
	}
	e, _ := repo.GetByID(ctx, "a")
	if e.Status != timeline.StatusVoided {
		t.Fatalf("expected voided, got %s", e.Status)
	}
}
