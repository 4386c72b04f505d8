//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/adapters/storage/postgres"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/adapters/storage/postgres/testhelper"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/pets"
)

func seed(t *testing.T, db postgres.DB, status appointments.Status) appointments.Appointment {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	p := pets.Pet{
		ID: uuid.NewString(), OwnerID: "client-" + uuid.NewString()[:8], Name: "Milo",
		Species: pets.SpeciesDog, Sex: pets.SexMale, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, postgres.NewPetsRepo(db).Create(ctx, p))

	clock := appointments.Clock{Hour: 9, Minute: 30}
	a := appointments.Appointment{
		ID: uuid.NewString(), ClientID: p.OwnerID, VeterinarianID: "vet-v", PetID: p.ID,
		Date: appointments.DateOf(now), Time: &clock, Reason: "ear infection",
		Status: status, Version: 1, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, postgres.NewAppointmentsRepo(db).Create(ctx, a))
	return a
}

func TestAppointments_ConditionalUpdate(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := postgres.NewAppointmentsRepo(db)
	ctx := context.Background()
	a := seed(t, db, appointments.StatusPending)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Time)
	assert.Equal(t, "09:30", got.Time.String())

	got.Status = appointments.StatusConfirmed
	got.Version = 2
	require.NoError(t, repo.UpdateIfVersion(ctx, got, 1))
	assert.ErrorIs(t, repo.UpdateIfVersion(ctx, got, 1), domain.ErrConflict)

	got.ID = uuid.NewString()
	assert.ErrorIs(t, repo.UpdateIfVersion(ctx, got, 2), domain.ErrNotFound)
}

func TestConsultations_CreateForAppointment(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	repo := postgres.NewConsultationsRepo(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	pending := seed(t, db, appointments.StatusPending)
	err := repo.CreateForAppointment(ctx, consultations.Consultation{
		ID: uuid.NewString(), AppointmentID: pending.ID, VeterinarianID: "vet-v", Diagnosis: "x", CreatedAt: now, UpdatedAt: now,
	})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	done := seed(t, db, appointments.StatusCompleted)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.CreateForAppointment(ctx, consultations.Consultation{
				ID: uuid.NewString(), AppointmentID: done.ID, VeterinarianID: "vet-v",
				Diagnosis: "otitis", CreatedAt: now, UpdatedAt: now,
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrConflict)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	c, err := repo.GetByAppointment(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ClientID, c.ClientID)
	assert.Equal(t, done.PetID, c.PetID)

	list, err := repo.List(ctx, consultations.ListFilter{ClientID: done.ClientID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
