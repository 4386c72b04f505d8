package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/pets"
)

var petColumns = []string{
	"id", "owner_id", "name", "species", "breed", "sex",
	"birth_date", "notes", "created_at", "updated_at",
}

type petRow struct {
	ID        string     `db:"id"`
	OwnerID   string     `db:"owner_id"`
	Name      string     `db:"name"`
	Species   string     `db:"species"`
	Breed     string     `db:"breed"`
	Sex       string     `db:"sex"`
	BirthDate *time.Time `db:"birth_date"`
	Notes     string     `db:"notes"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (r petRow) toDomain() pets.Pet {
	return pets.Pet{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Species:   pets.Species(r.Species),
		Breed:     r.Breed,
		Sex:       pets.Sex(r.Sex),
		BirthDate: dateUTC(r.BirthDate),
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

var _ pets.Repository = (*PetsRepo)(nil)

type PetsRepo struct {
	db DB
}

func NewPetsRepo(db DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	sql, args, err := psql.Insert("pets").
		Columns(petColumns...).
		Values(p.ID, p.OwnerID, p.Name, string(p.Species), p.Breed, string(p.Sex),
			p.BirthDate, p.Notes, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert pet: %w", err)
	}

	_, err = QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	return mapError(err, "pet", p.ID)
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	sql, args, err := psql.Update("pets").
		Set("name", p.Name).
		Set("species", string(p.Species)).
		Set("breed", p.Breed).
		Set("sex", string(p.Sex)).
		Set("birth_date", p.BirthDate).
		Set("notes", p.Notes).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update pet: %w", err)
	}

	tag, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, "pet", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pet %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, domain.ErrNotFound
	}

	sql, args, err := psql.Select(petColumns...).From("pets").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return pets.Pet{}, fmt.Errorf("build select pet: %w", err)
	}

	var row petRow
	if err := pgxscan.Get(ctx, QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return pets.Pet{}, mapError(err, "pet", id)
	}
	return row.toDomain(), nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	sql, args, err := psql.Select(petColumns...).From("pets").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pets: %w", err)
	}

	var rows []petRow
	if err := pgxscan.Select(ctx, QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list pets of %s: %w", ownerID, err)
	}

	out := make([]pets.Pet, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// dateUTC normaliza columnas DATE a 00:00 UTC.
func dateUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}
