package notify

import (
	"encoding/json"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/notifications"
)

// Message es el sobre JSON que viaja por Kafka/SQS.
type Message struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	SenderID    string    `json:"sender_id,omitempty"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	EntityID    string    `json:"entity_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func Encode(n notifications.Notification) ([]byte, error) {
	return json.Marshal(Message{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		SenderID:    n.SenderID,
		Type:        string(n.Type),
		Title:       n.Title,
		Message:     n.Message,
		EntityID:    n.EntityID,
		CreatedAt:   n.CreatedAt.UTC(),
	})
}
