package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/config"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/notifications"
)

// New arma el publisher según cfg.Driver. El close devuelto nunca es nil.
func New(ctx context.Context, cfg config.NotifyConfig, log *slog.Logger) (notifications.Publisher, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.NotifyDriverKafka:
		p, err := NewKafkaPublisher(cfg.Brokers(), cfg.KafkaTopic, cfg.Timeout)
		if err != nil {
			return nil, noop, err
		}
		return p, p.Close, nil
	case config.NotifyDriverSQS:
		p, err := NewSQSPublisher(ctx, cfg.SQSRegion, cfg.SQSQueueURL, cfg.Timeout)
		if err != nil {
			return nil, noop, err
		}
		return p, noop, nil
	case config.NotifyDriverLog, "":
		return NewLogPublisher(log), noop, nil
	default:
		return nil, noop, fmt.Errorf("notify: unknown driver %q", cfg.Driver)
	}
}

// Drained envuelve p para que el close espere las publicaciones en curso
// antes de cerrar el transporte.
func Drained(p notifications.Publisher, closeFn func() error) (notifications.Publisher, func() error) {
	d := &drained{next: p}
	return d, func() error {
		d.wg.Wait()
		return closeFn()
	}
}

type drained struct {
	next notifications.Publisher
	wg   sync.WaitGroup
}

func (d *drained) Publish(ctx context.Context, n notifications.Notification) error {
	d.wg.Add(1)
	defer d.wg.Done()
	return d.next.Publish(ctx, n)
}
