package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/medicalrecords"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/timeline"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

// -------------------------
// mapError
// -------------------------

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, domain.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scany: %w", pgx.ErrNoRows), domain.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, domain.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, domain.ErrNotFound},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "appointments_status_check"}, domain.ErrValidation},
		{"canceled", context.Canceled, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.in, "appointment", "a-1")
			if !errors.Is(got, tt.want) {
				t.Fatalf("mapError(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if mapError(nil, "x", "y") != nil {
		t.Fatalf("nil must stay nil")
	}
	other := errors.New("connection reset")
	if got := mapError(other, "pet", "p-1"); !errors.Is(got, other) || errors.Is(got, domain.ErrNotFound) {
		t.Fatalf("unknown errors must be wrapped as is, got %v", got)
	}
}

// -------------------------
// Appointments
// -------------------------

func TestAppointmentsRepo_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentsRepo(mock)

	minutes := 570
	rows := pgxmock.NewRows(appointmentColumns).AddRow(
		"appt-1", "client-c", "vet-v", "pet-p",
		day, &minutes, "ear infection", "", "CONFIRMED", int64(2),
		"", nil, nil, day, day,
	)
	mock.ExpectQuery(`SELECT (.+) FROM appointments WHERE id = \$1`).
		WithArgs("appt-1").
		WillReturnRows(rows)

	a, err := repo.GetByID(context.Background(), "appt-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.Status != appointments.StatusConfirmed || a.Version != 2 {
		t.Fatalf("unexpected appointment %+v", a)
	}
	if a.Time == nil || a.Time.String() != "09:30" {
		t.Fatalf("expected 09:30, got %v", a.Time)
	}
	if a.CancelledAt != nil {
		t.Fatalf("expected nil cancelled_at")
	}
}

func TestAppointmentsRepo_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentsRepo(mock)

	mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppointmentsRepo_UpdateIfVersion(t *testing.T) {
	a := appointments.Appointment{
		ID: "appt-1", ClientID: "client-c", VeterinarianID: "vet-v", PetID: "pet-p",
		Date: day, Status: appointments.StatusConfirmed, Version: 2, UpdatedAt: day,
	}

	tests := []struct {
		name  string
		setup func(mock pgxmock.PgxPoolIface)
		want  error
	}{
		{
			name: "updated",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE appointments SET (.+) WHERE id = \$\d+ AND version = \$\d+`).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "lost race",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE appointments`).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("appt-1").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			want: domain.ErrConflict,
		},
		{
			name: "gone",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE appointments`).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("appt-1").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)

			err := NewAppointmentsRepo(mock).UpdateIfVersion(context.Background(), a, 1)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// -------------------------
// Consultations
// -------------------------

func TestConsultationsRepo_CreateForAppointment(t *testing.T) {
	c := consultations.Consultation{
		ID: "cons-1", AppointmentID: "appt-1", VeterinarianID: "vet-v",
		Diagnosis: "otitis", CreatedAt: day, UpdatedAt: day,
	}
	lockRow := func(status, vet string) *pgxmock.Rows {
		return pgxmock.NewRows([]string{"status", "veterinarian_id"}).AddRow(status, vet)
	}
	existsRow := func(v bool) *pgxmock.Rows {
		return pgxmock.NewRows([]string{"exists"}).AddRow(v)
	}

	tests := []struct {
		name  string
		setup func(mock pgxmock.PgxPoolIface)
		check func(t *testing.T, err error)
	}{
		{
			name: "inserted",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT status, veterinarian_id FROM appointments WHERE id = \$1 FOR UPDATE`).
					WithArgs("appt-1").
					WillReturnRows(lockRow("COMPLETED", "vet-v"))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs("appt-1").WillReturnRows(existsRow(false))
				mock.ExpectExec(`INSERT INTO consultations`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectCommit()
			},
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
			},
		},
		{
			name: "appointment not completed",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FOR UPDATE`).WithArgs("appt-1").WillReturnRows(lockRow("CONFIRMED", "vet-v"))
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrPreconditionFailed) {
					t.Fatalf("expected ErrPreconditionFailed, got %v", err)
				}
			},
		},
		{
			name: "another vet",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FOR UPDATE`).WithArgs("appt-1").WillReturnRows(lockRow("COMPLETED", "vet-other"))
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				var ferr *domain.ForbiddenError
				if !errors.As(err, &ferr) {
					t.Fatalf("expected ForbiddenError, got %v", err)
				}
			},
		},
		{
			name: "already recorded",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FOR UPDATE`).WithArgs("appt-1").WillReturnRows(lockRow("COMPLETED", "vet-v"))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs("appt-1").WillReturnRows(existsRow(true))
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrConflict) {
					t.Fatalf("expected ErrConflict, got %v", err)
				}
			},
		},
		{
			name: "unique violation on insert",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FOR UPDATE`).WithArgs("appt-1").WillReturnRows(lockRow("COMPLETED", "vet-v"))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs("appt-1").WillReturnRows(existsRow(false))
				mock.ExpectExec(`INSERT INTO consultations`).WillReturnError(&pgconn.PgError{Code: "23505"})
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrConflict) {
					t.Fatalf("expected ErrConflict, got %v", err)
				}
			},
		},
		{
			name: "appointment missing",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FOR UPDATE`).WithArgs("appt-1").WillReturnError(pgx.ErrNoRows)
				mock.ExpectRollback()
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)
			tt.check(t, NewConsultationsRepo(mock).CreateForAppointment(context.Background(), c))
		})
	}
}

func TestConsultationsRepo_UpdateIfUnchanged(t *testing.T) {
	c := consultations.Consultation{
		ID: "cons-1", AppointmentID: "appt-1", VeterinarianID: "vet-v",
		Diagnosis: "otitis media", UpdatedAt: day.Add(time.Hour),
	}

	tests := []struct {
		name  string
		setup func(mock pgxmock.PgxPoolIface)
		want  error
	}{
		{
			name: "updated",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE consultations SET (.+) WHERE id = \$\d+ AND updated_at = \$\d+`).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "edited meanwhile",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE consultations`).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("cons-1").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			want: domain.ErrConflict,
		},
		{
			name: "gone",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE consultations`).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs("cons-1").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)

			err := NewConsultationsRepo(mock).UpdateIfUnchanged(context.Background(), c, day)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConsultationsRepo_GetByAppointment_JoinsAppointment(t *testing.T) {
	mock := newMock(t)
	repo := NewConsultationsRepo(mock)

	cols := []string{
		"id", "appointment_id", "veterinarian_id", "diagnosis", "symptoms", "notes", "prescription",
		"follow_up_required", "follow_up_date", "client_id", "pet_id", "created_at", "updated_at",
	}
	fu := day.AddDate(0, 0, 7)
	mock.ExpectQuery(`FROM consultations c JOIN appointments a ON a.id = c.appointment_id WHERE c.appointment_id = \$1`).
		WithArgs("appt-1").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			"cons-1", "appt-1", "vet-v", "otitis", "", "", "",
			true, &fu, "client-c", "pet-p", day, day,
		))

	c, err := repo.GetByAppointment(context.Background(), "appt-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.ClientID != "client-c" || c.PetID != "pet-p" {
		t.Fatalf("expected derived client/pet, got %+v", c)
	}
	if c.FollowUpDate == nil || !c.FollowUpDate.Equal(fu) {
		t.Fatalf("unexpected follow-up date %v", c.FollowUpDate)
	}
}

// -------------------------
// Medical records / timeline
// -------------------------

func TestMedicalRecordsRepo_List_NoPetsSkipsQuery(t *testing.T) {
	mock := newMock(t)

	got, err := NewMedicalRecordsRepo(mock).List(context.Background(), medicalrecords.ListFilter{})
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result without querying, got %v err=%v", got, err)
	}
}

func TestTimelineRepo_ListByPet_Filters(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`FROM timeline_entries WHERE pet_id = \$1 AND type IN \(\$2,\$3\) ORDER BY occurred_at DESC, recorded_at DESC LIMIT 10`).
		WithArgs("pet-p", "NOTE", "APPOINTMENT_CONFIRMED").
		WillReturnRows(pgxmock.NewRows(timelineColumns).AddRow(
			"e-1", "pet-p", "", "", "NOTE", "client-c", "CLIENT", "", "",
			"Vomited once", "", "active", day, day,
		))

	got, err := NewTimelineRepo(mock).ListByPet(context.Background(), "pet-p", timeline.ListFilter{
		Types: []timeline.EntryType{timeline.TypeNote, timeline.TypeAppointmentConfirmed},
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Type != timeline.TypeNote || got[0].Actor.ID != "client-c" {
		t.Fatalf("unexpected entries %+v", got)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escape %q", got)
	}
}
