package notify

import (
	"context"
	"log/slog"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/notifications"
)

// LogPublisher sólo deja constancia en el log. Es el driver de desarrollo.
type LogPublisher struct {
	log *slog.Logger
}

var _ notifications.Publisher = (*LogPublisher)(nil)

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &LogPublisher{log: log.With("publisher", "log")}
}

func (p *LogPublisher) Publish(ctx context.Context, n notifications.Notification) error {
	p.log.InfoContext(ctx, "notification published",
		"notification_id", n.ID,
		"recipient_id", n.RecipientID,
		"type", n.Type,
		"entity_id", n.EntityID,
	)
	return nil
}
