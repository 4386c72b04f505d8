package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/notifications"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica en un topic con key = destinatario, así los
// mensajes de un mismo usuario caen en la misma partición.
type KafkaPublisher struct {
	w       messageWriter
	timeout time.Duration
}

var _ notifications.Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: empty topic")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: timeout,
	}
	return &KafkaPublisher{w: w, timeout: timeout}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, n notifications.Notification) error {
	body, err := Encode(n)
	if err != nil {
		return fmt.Errorf("kafka: encode notification %s: %w", n.ID, err)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.RecipientID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka: publish notification %s: %w", n.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
