package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/policy"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/timeline"
)

var timelineColumns = []string{
	"id", "pet_id", "appointment_id", "entity_id", "type",
	"actor_id", "actor_role", "from_status", "to_status",
	"title", "notes", "status", "occurred_at", "recorded_at",
}

type timelineRow struct {
	ID            string    `db:"id"`
	PetID         string    `db:"pet_id"`
	AppointmentID string    `db:"appointment_id"`
	EntityID      string    `db:"entity_id"`
	Type          string    `db:"type"`
	ActorID       string    `db:"actor_id"`
	ActorRole     string    `db:"actor_role"`
	FromStatus    string    `db:"from_status"`
	ToStatus      string    `db:"to_status"`
	Title         string    `db:"title"`
	Notes         string    `db:"notes"`
	Status        string    `db:"status"`
	OccurredAt    time.Time `db:"occurred_at"`
	RecordedAt    time.Time `db:"recorded_at"`
}

func (r timelineRow) toDomain() timeline.Entry {
	return timeline.Entry{
		ID:            r.ID,
		PetID:         r.PetID,
		AppointmentID: r.AppointmentID,
		EntityID:      r.EntityID,
		Type:          timeline.EntryType(r.Type),
		Actor:         timeline.Actor{ID: r.ActorID, Role: policy.Role(r.ActorRole)},
		From:          r.FromStatus,
		To:            r.ToStatus,
		Title:         r.Title,
		Notes:         r.Notes,
		Status:        timeline.EntryStatus(r.Status),
		OccurredAt:    r.OccurredAt,
		RecordedAt:    r.RecordedAt,
	}
}

var _ timeline.Repository = (*TimelineRepo)(nil)

type TimelineRepo struct {
	db DB
}

func NewTimelineRepo(db DB) *TimelineRepo {
	return &TimelineRepo{db: db}
}

func (r *TimelineRepo) Append(ctx context.Context, e timeline.Entry) error {
	sql, args, err := psql.Insert("timeline_entries").
		Columns(timelineColumns...).
		Values(e.ID, e.PetID, e.AppointmentID, e.EntityID, string(e.Type),
			e.Actor.ID, string(e.Actor.Role), e.From, e.To,
			e.Title, e.Notes, string(e.Status), e.OccurredAt, e.RecordedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert timeline entry: %w", err)
	}

	_, err = QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	return mapError(err, "timeline_entry", e.ID)
}

func (r *TimelineRepo) GetByID(ctx context.Context, id string) (timeline.Entry, error) {
	sql, args, err := psql.Select(timelineColumns...).From("timeline_entries").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return timeline.Entry{}, fmt.Errorf("build select timeline entry: %w", err)
	}

	var row timelineRow
	if err := pgxscan.Get(ctx, QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return timeline.Entry{}, mapError(err, "timeline_entry", id)
	}
	return row.toDomain(), nil
}

func (r *TimelineRepo) ListByPet(ctx context.Context, petID string, f timeline.ListFilter) ([]timeline.Entry, error) {
	q := psql.Select(timelineColumns...).From("timeline_entries").
		Where(squirrel.Eq{"pet_id": petID})

	if len(f.Types) > 0 {
		types := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			types = append(types, string(t))
		}
		q = q.Where(squirrel.Eq{"type": types})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"occurred_at": *f.To})
	}
	if text := strings.TrimSpace(f.Query); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}

	return r.list(ctx, q, f.Limit)
}

func (r *TimelineRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]timeline.Entry, error) {
	q := psql.Select(timelineColumns...).From("timeline_entries").
		Where(squirrel.Eq{"appointment_id": appointmentID})
	return r.list(ctx, q, 0)
}

func (r *TimelineRepo) list(ctx context.Context, q squirrel.SelectBuilder, limit int) ([]timeline.Entry, error) {
	q = q.OrderBy("occurred_at DESC", "recorded_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list timeline: %w", err)
	}

	var rows []timelineRow
	if err := pgxscan.Select(ctx, QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}

	out := make([]timeline.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TimelineRepo) Void(ctx context.Context, id string) error {
	sql, args, err := psql.Update("timeline_entries").
		Set("status", string(timeline.StatusVoided)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build void timeline entry: %w", err)
	}

	tag, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, "timeline_entry", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("timeline_entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
