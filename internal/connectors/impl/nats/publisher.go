package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

type Publisher struct {
	conf    Config
	subject string
	nc      *nats.Conn

	l *slog.Logger
}

func NewPublisher(conf Config, opts connectors.PublishOptions, l *slog.Logger) (*Publisher, error) {
	subject := opts.RoutingKey
	if subject == "" {
		subject = conf.Subject
	}
	if subject == "" {
		return nil, fmt.Errorf("nats: no subject to publish to")
	}

	nc, err := nats.Connect(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}

	return &Publisher{
		conf:    conf,
		subject: subject,
		nc:      nc,
		l:       l.With("publisher_type", "nats_core"),
	}, nil
}

// Publish flushes after every message. Core NATS has no broker ack; a
// completed flush is the closest confirmation available.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if err := p.nc.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("nats: publish: %w", err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats: flush: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.nc.Close()
	return nil
}
