package notifications

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, n Notification) error
	GetByID(ctx context.Context, id string) (Notification, error)

	// ListByRecipient ordena por created_at desc.
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]Notification, error)

	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int, error)
}

// Publisher entrega la notificación fuera del proceso (log, Kafka, SQS).
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}
