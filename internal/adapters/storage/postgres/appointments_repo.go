package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
)

var appointmentColumns = []string{
	"id", "client_id", "veterinarian_id", "pet_id",
	"date", "time_minutes", "reason", "notes", "status", "version",
	"cancelled_by", "cancelled_at", "completed_at", "created_at", "updated_at",
}

type appointmentRow struct {
	ID             string     `db:"id"`
	ClientID       string     `db:"client_id"`
	VeterinarianID string     `db:"veterinarian_id"`
	PetID          string     `db:"pet_id"`
	Date           time.Time  `db:"date"`
	TimeMinutes    *int       `db:"time_minutes"`
	Reason         string     `db:"reason"`
	Notes          string     `db:"notes"`
	Status         string     `db:"status"`
	Version        int64      `db:"version"`
	CancelledBy    string     `db:"cancelled_by"`
	CancelledAt    *time.Time `db:"cancelled_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (r appointmentRow) toDomain() appointments.Appointment {
	a := appointments.Appointment{
		ID:             r.ID,
		ClientID:       r.ClientID,
		VeterinarianID: r.VeterinarianID,
		PetID:          r.PetID,
		Date:           appointments.DateOf(r.Date),
		Reason:         r.Reason,
		Notes:          r.Notes,
		Status:         appointments.Status(r.Status),
		Version:        r.Version,
		CancelledBy:    r.CancelledBy,
		CancelledAt:    r.CancelledAt,
		CompletedAt:    r.CompletedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.TimeMinutes != nil {
		c := appointments.ClockFromMinutes(*r.TimeMinutes)
		a.Time = &c
	}
	return a
}

func clockMinutes(c *appointments.Clock) *int {
	if c == nil {
		return nil
	}
	m := c.Minutes()
	return &m
}

var _ appointments.Repository = (*AppointmentsRepo)(nil)

type AppointmentsRepo struct {
	db DB
}

func NewAppointmentsRepo(db DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	sql, args, err := psql.Insert("appointments").
		Columns(appointmentColumns...).
		Values(a.ID, a.ClientID, a.VeterinarianID, a.PetID,
			a.Date, clockMinutes(a.Time), a.Reason, a.Notes, string(a.Status), a.Version,
			a.CancelledBy, a.CancelledAt, a.CompletedAt, a.CreatedAt, a.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert appointment: %w", err)
	}

	_, err = QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	return mapError(err, "appointment", a.ID)
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	sql, args, err := psql.Select(appointmentColumns...).From("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return appointments.Appointment{}, fmt.Errorf("build select appointment: %w", err)
	}

	var row appointmentRow
	if err := pgxscan.Get(ctx, QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return appointments.Appointment{}, mapError(err, "appointment", id)
	}
	return row.toDomain(), nil
}

// UpdateIfVersion es un UPDATE condicionado a la versión leída. Si no afecta
// filas, distingue entre turno inexistente y carrera perdida.
func (r *AppointmentsRepo) UpdateIfVersion(ctx context.Context, a appointments.Appointment, expected int64) error {
	sql, args, err := psql.Update("appointments").
		Set("date", a.Date).
		Set("time_minutes", clockMinutes(a.Time)).
		Set("reason", a.Reason).
		Set("notes", a.Notes).
		Set("status", string(a.Status)).
		Set("version", a.Version).
		Set("cancelled_by", a.CancelledBy).
		Set("cancelled_at", a.CancelledAt).
		Set("completed_at", a.CompletedAt).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID, "version": expected}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update appointment: %w", err)
	}

	q := QuerierFromCtx(ctx, r.db)
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, "appointment", a.ID)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
		return mapError(err, "appointment", a.ID)
	}
	if !exists {
		return fmt.Errorf("appointment %s: %w", a.ID, domain.ErrNotFound)
	}
	return fmt.Errorf("appointment %s changed since version %d: %w", a.ID, expected, domain.ErrConflict)
}

func (r *AppointmentsRepo) List(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	q := psql.Select(appointmentColumns...).From("appointments")

	if f.ClientID != "" {
		q = q.Where(squirrel.Eq{"client_id": f.ClientID})
	}
	if f.VeterinarianID != "" {
		q = q.Where(squirrel.Eq{"veterinarian_id": f.VeterinarianID})
	}
	if f.PetID != "" {
		q = q.Where(squirrel.Eq{"pet_id": f.PetID})
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		q = q.Where(squirrel.Eq{"status": statuses})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.FromDate})
	}
	q = q.OrderBy("date DESC", "created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list appointments: %w", err)
	}

	var rows []appointmentRow
	if err := pgxscan.Select(ctx, QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	out := make([]appointments.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
