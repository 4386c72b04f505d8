package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/consultations"
)

// client_id y pet_id salen del turno.
var consultationSelect = []string{
	"c.id", "c.appointment_id", "c.veterinarian_id",
	"c.diagnosis", "c.symptoms", "c.notes", "c.prescription",
	"c.follow_up_required", "c.follow_up_date",
	"a.client_id", "a.pet_id",
	"c.created_at", "c.updated_at",
}

type consultationRow struct {
	ID               string     `db:"id"`
	AppointmentID    string     `db:"appointment_id"`
	VeterinarianID   string     `db:"veterinarian_id"`
	Diagnosis        string     `db:"diagnosis"`
	Symptoms         string     `db:"symptoms"`
	Notes            string     `db:"notes"`
	Prescription     string     `db:"prescription"`
	FollowUpRequired bool       `db:"follow_up_required"`
	FollowUpDate     *time.Time `db:"follow_up_date"`
	ClientID         string     `db:"client_id"`
	PetID            string     `db:"pet_id"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (r consultationRow) toDomain() consultations.Consultation {
	return consultations.Consultation{
		ID:               r.ID,
		AppointmentID:    r.AppointmentID,
		VeterinarianID:   r.VeterinarianID,
		Diagnosis:        r.Diagnosis,
		Symptoms:         r.Symptoms,
		Notes:            r.Notes,
		Prescription:     r.Prescription,
		FollowUpRequired: r.FollowUpRequired,
		FollowUpDate:     dateUTC(r.FollowUpDate),
		ClientID:         r.ClientID,
		PetID:            r.PetID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

var _ consultations.Repository = (*ConsultationsRepo)(nil)

type ConsultationsRepo struct {
	db DB
	tx *TxManager
}

func NewConsultationsRepo(db DB) *ConsultationsRepo {
	return &ConsultationsRepo{db: db, tx: NewTxManager(db)}
}

func (r *ConsultationsRepo) selectBuilder() squirrel.SelectBuilder {
	return psql.Select(consultationSelect...).
		From("consultations c").
		Join("appointments a ON a.id = c.appointment_id")
}

// CreateForAppointment bloquea la fila del turno (FOR UPDATE) mientras
// verifica estado, vet y unicidad; un cambio de estado concurrente espera
// al commit o ve la consulta ya creada. La UNIQUE sobre appointment_id
// resuelve dos inserts simultáneos.
func (r *ConsultationsRepo) CreateForAppointment(ctx context.Context, c consultations.Consultation) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := QuerierFromCtx(ctx, r.db)

		var status, vetID string
		err := q.QueryRow(ctx,
			`SELECT status, veterinarian_id FROM appointments WHERE id = $1 FOR UPDATE`,
			c.AppointmentID,
		).Scan(&status, &vetID)
		if err != nil {
			return mapError(err, "appointment", c.AppointmentID)
		}

		if appointments.Status(status) != appointments.StatusCompleted {
			return fmt.Errorf("appointment %s is %s: %w", c.AppointmentID, status, domain.ErrPreconditionFailed)
		}
		if vetID != c.VeterinarianID {
			return &domain.ForbiddenError{Action: "consultation:create"}
		}

		var exists bool
		err = q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM consultations WHERE appointment_id = $1)`,
			c.AppointmentID,
		).Scan(&exists)
		if err != nil {
			return mapError(err, "consultation", c.ID)
		}
		if exists {
			return fmt.Errorf("appointment %s already has a consultation: %w", c.AppointmentID, domain.ErrConflict)
		}

		sql, args, err := psql.Insert("consultations").
			Columns("id", "appointment_id", "veterinarian_id",
				"diagnosis", "symptoms", "notes", "prescription",
				"follow_up_required", "follow_up_date", "created_at", "updated_at").
			Values(c.ID, c.AppointmentID, c.VeterinarianID,
				c.Diagnosis, c.Symptoms, c.Notes, c.Prescription,
				c.FollowUpRequired, c.FollowUpDate, c.CreatedAt, c.UpdatedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert consultation: %w", err)
		}
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return mapError(err, "consultation", c.ID)
		}
		return nil
	})
}

func (r *ConsultationsRepo) GetByID(ctx context.Context, id string) (consultations.Consultation, error) {
	return r.getOne(ctx, squirrel.Eq{"c.id": id}, id)
}

func (r *ConsultationsRepo) GetByAppointment(ctx context.Context, appointmentID string) (consultations.Consultation, error) {
	return r.getOne(ctx, squirrel.Eq{"c.appointment_id": appointmentID}, appointmentID)
}

func (r *ConsultationsRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (consultations.Consultation, error) {
	sql, args, err := r.selectBuilder().Where(where).ToSql()
	if err != nil {
		return consultations.Consultation{}, fmt.Errorf("build select consultation: %w", err)
	}

	var row consultationRow
	if err := pgxscan.Get(ctx, QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return consultations.Consultation{}, mapError(err, "consultation", key)
	}
	return row.toDomain(), nil
}

// UpdateIfUnchanged no toca appointment_id ni veterinarian_id. El WHERE sobre
// updated_at evita pisar una edición concurrente.
func (r *ConsultationsRepo) UpdateIfUnchanged(ctx context.Context, c consultations.Consultation, readAt time.Time) error {
	sql, args, err := psql.Update("consultations").
		Set("diagnosis", c.Diagnosis).
		Set("symptoms", c.Symptoms).
		Set("notes", c.Notes).
		Set("prescription", c.Prescription).
		Set("follow_up_required", c.FollowUpRequired).
		Set("follow_up_date", c.FollowUpDate).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID, "updated_at": readAt}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update consultation: %w", err)
	}

	q := QuerierFromCtx(ctx, r.db)
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, "consultation", c.ID)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM consultations WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
		return mapError(err, "consultation", c.ID)
	}
	if !exists {
		return fmt.Errorf("consultation %s: %w", c.ID, domain.ErrNotFound)
	}
	return fmt.Errorf("consultation %s changed since %s: %w", c.ID, readAt.Format(time.RFC3339Nano), domain.ErrConflict)
}

func (r *ConsultationsRepo) List(ctx context.Context, f consultations.ListFilter) ([]consultations.Consultation, error) {
	q := r.selectBuilder()
	if f.VeterinarianID != "" {
		q = q.Where(squirrel.Eq{"c.veterinarian_id": f.VeterinarianID})
	}
	if f.ClientID != "" {
		q = q.Where(squirrel.Eq{"a.client_id": f.ClientID})
	}
	if f.PetID != "" {
		q = q.Where(squirrel.Eq{"a.pet_id": f.PetID})
	}
	if f.FollowUpOnly {
		q = q.Where(squirrel.Eq{"c.follow_up_required": true})
	}
	q = q.OrderBy("c.created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list consultations: %w", err)
	}

	var rows []consultationRow
	if err := pgxscan.Select(ctx, QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}

	out := make([]consultations.Consultation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
