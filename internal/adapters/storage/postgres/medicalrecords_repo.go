package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/medicalrecords"
)

var medicalRecordColumns = []string{
	"id", "pet_id", "appointment_id", "veterinarian_id", "visit_date",
	"diagnosis", "symptoms", "treatment", "prescription", "notes",
	"follow_up_required", "follow_up_date", "weight_kg", "temperature_c",
	"created_at", "updated_at",
}

type medicalRecordRow struct {
	ID               string     `db:"id"`
	PetID            string     `db:"pet_id"`
	AppointmentID    string     `db:"appointment_id"`
	VeterinarianID   string     `db:"veterinarian_id"`
	VisitDate        time.Time  `db:"visit_date"`
	Diagnosis        string     `db:"diagnosis"`
	Symptoms         string     `db:"symptoms"`
	Treatment        string     `db:"treatment"`
	Prescription     string     `db:"prescription"`
	Notes            string     `db:"notes"`
	FollowUpRequired bool       `db:"follow_up_required"`
	FollowUpDate     *time.Time `db:"follow_up_date"`
	WeightKg         *float64   `db:"weight_kg"`
	TemperatureC     *float64   `db:"temperature_c"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// OwnerID lo completa el servicio desde el registro de mascotas.
func (r medicalRecordRow) toDomain() medicalrecords.MedicalRecord {
	return medicalrecords.MedicalRecord{
		ID:               r.ID,
		PetID:            r.PetID,
		AppointmentID:    r.AppointmentID,
		VeterinarianID:   r.VeterinarianID,
		VisitDate:        *dateUTC(&r.VisitDate),
		Diagnosis:        r.Diagnosis,
		Symptoms:         r.Symptoms,
		Treatment:        r.Treatment,
		Prescription:     r.Prescription,
		Notes:            r.Notes,
		FollowUpRequired: r.FollowUpRequired,
		FollowUpDate:     dateUTC(r.FollowUpDate),
		WeightKg:         r.WeightKg,
		TemperatureC:     r.TemperatureC,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

var _ medicalrecords.Repository = (*MedicalRecordsRepo)(nil)

type MedicalRecordsRepo struct {
	db DB
}

func NewMedicalRecordsRepo(db DB) *MedicalRecordsRepo {
	return &MedicalRecordsRepo{db: db}
}

func (r *MedicalRecordsRepo) Create(ctx context.Context, m medicalrecords.MedicalRecord) error {
	sql, args, err := psql.Insert("medical_records").
		Columns(medicalRecordColumns...).
		Values(m.ID, m.PetID, m.AppointmentID, m.VeterinarianID, m.VisitDate,
			m.Diagnosis, m.Symptoms, m.Treatment, m.Prescription, m.Notes,
			m.FollowUpRequired, m.FollowUpDate, m.WeightKg, m.TemperatureC,
			m.CreatedAt, m.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert medical record: %w", err)
	}

	_, err = QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	return mapError(err, "medical_record", m.ID)
}

func (r *MedicalRecordsRepo) GetByID(ctx context.Context, id string) (medicalrecords.MedicalRecord, error) {
	sql, args, err := psql.Select(medicalRecordColumns...).From("medical_records").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return medicalrecords.MedicalRecord{}, fmt.Errorf("build select medical record: %w", err)
	}

	var row medicalRecordRow
	if err := pgxscan.Get(ctx, QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return medicalrecords.MedicalRecord{}, mapError(err, "medical_record", id)
	}
	return row.toDomain(), nil
}

// Update no cambia mascota, turno ni autor.
func (r *MedicalRecordsRepo) Update(ctx context.Context, m medicalrecords.MedicalRecord) error {
	sql, args, err := psql.Update("medical_records").
		Set("visit_date", m.VisitDate).
		Set("diagnosis", m.Diagnosis).
		Set("symptoms", m.Symptoms).
		Set("treatment", m.Treatment).
		Set("prescription", m.Prescription).
		Set("notes", m.Notes).
		Set("follow_up_required", m.FollowUpRequired).
		Set("follow_up_date", m.FollowUpDate).
		Set("weight_kg", m.WeightKg).
		Set("temperature_c", m.TemperatureC).
		Set("updated_at", m.UpdatedAt).
		Where(squirrel.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update medical record: %w", err)
	}

	tag, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, "medical_record", m.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("medical_record %s: %w", m.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *MedicalRecordsRepo) List(ctx context.Context, f medicalrecords.ListFilter) ([]medicalrecords.MedicalRecord, error) {
	if !f.AnyPet && len(f.PetIDs) == 0 {
		return []medicalrecords.MedicalRecord{}, nil
	}

	q := psql.Select(medicalRecordColumns...).From("medical_records")
	if !f.AnyPet {
		q = q.Where(squirrel.Eq{"pet_id": f.PetIDs})
	}
	if f.VeterinarianID != "" {
		q = q.Where(squirrel.Eq{"veterinarian_id": f.VeterinarianID})
	}
	if f.FollowUpOnly {
		q = q.Where(squirrel.Eq{"follow_up_required": true})
	}
	q = q.OrderBy("visit_date DESC", "created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list medical records: %w", err)
	}

	var rows []medicalRecordRow
	if err := pgxscan.Select(ctx, QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}

	out := make([]medicalrecords.MedicalRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
