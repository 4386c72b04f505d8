package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/notifications"
)

var notificationColumns = []string{
	"id", "recipient_id", "sender_id", "type", "title", "message",
	"entity_id", "read", "read_at", "created_at",
}

type notificationRow struct {
	ID          string     `db:"id"`
	RecipientID string     `db:"recipient_id"`
	SenderID    string     `db:"sender_id"`
	Type        string     `db:"type"`
	Title       string     `db:"title"`
	Message     string     `db:"message"`
	EntityID    string     `db:"entity_id"`
	Read        bool       `db:"read"`
	ReadAt      *time.Time `db:"read_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (r notificationRow) toDomain() notifications.Notification {
	return notifications.Notification{
		ID:          r.ID,
		RecipientID: r.RecipientID,
		SenderID:    r.SenderID,
		Type:        notifications.Type(r.Type),
		Title:       r.Title,
		Message:     r.Message,
		EntityID:    r.EntityID,
		Read:        r.Read,
		ReadAt:      r.ReadAt,
		CreatedAt:   r.CreatedAt,
	}
}

var _ notifications.Repository = (*NotificationsRepo)(nil)

type NotificationsRepo struct {
	db DB
}

func NewNotificationsRepo(db DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

func (r *NotificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	sql, args, err := psql.Insert("notifications").
		Columns(notificationColumns...).
		Values(n.ID, n.RecipientID, n.SenderID, string(n.Type), n.Title, n.Message,
			n.EntityID, n.Read, n.ReadAt, n.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert notification: %w", err)
	}

	_, err = QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	return mapError(err, "notification", n.ID)
}

func (r *NotificationsRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	sql, args, err := psql.Select(notificationColumns...).From("notifications").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return notifications.Notification{}, fmt.Errorf("build select notification: %w", err)
	}

	var row notificationRow
	if err := pgxscan.Get(ctx, QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		return notifications.Notification{}, mapError(err, "notification", id)
	}
	return row.toDomain(), nil
}

func (r *NotificationsRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]notifications.Notification, error) {
	q := psql.Select(notificationColumns...).From("notifications").
		Where(squirrel.Eq{"recipient_id": recipientID})
	if unreadOnly {
		q = q.Where(squirrel.Eq{"read": false})
	}
	q = q.OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list notifications: %w", err)
	}

	var rows []notificationRow
	if err := pgxscan.Select(ctx, QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list notifications of %s: %w", recipientID, err)
	}

	out := make([]notifications.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	sql, args, err := psql.Update("notifications").
		Set("read", true).
		Set("read_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark read: %w", err)
	}

	tag, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, "notification", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *NotificationsRepo) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int, error) {
	sql, args, err := psql.Update("notifications").
		Set("read", true).
		Set("read_at", at).
		Where(squirrel.Eq{"recipient_id": recipientID, "read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build mark all read: %w", err)
	}

	tag, err := QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("mark all read for %s: %w", recipientID, err)
	}
	return int(tag.RowsAffected()), nil
}
