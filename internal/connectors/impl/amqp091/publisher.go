package amqp091

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

// Publisher sends in confirm mode and waits for each broker confirmation
// before returning, so callers get strictly sequential, confirmed publishes.
type Publisher struct {
	conf Config
	opts connectors.PublishOptions

	conn *amqp.Connection
	ch   *amqp.Channel

	l *slog.Logger
}

func NewPublisher(conf Config, opts connectors.PublishOptions, l *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp091: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp091: open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp091: enable confirms: %w", err)
	}

	if opts.Exchange == "" {
		opts.Exchange = conf.Exchange
	}
	if opts.RoutingKey == "" {
		opts.RoutingKey = conf.RoutingKey
	}

	return &Publisher{
		conf: conf,
		opts: opts,
		conn: conn,
		ch:   ch,
		l:    l.With("publisher_type", "amqp091"),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	dc, err := p.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		p.opts.Exchange,
		p.opts.RoutingKey,
		false,
		false,
		amqp.Publishing{Body: payload},
	)
	if err != nil {
		return fmt.Errorf("amqp091: publish: %w", err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("amqp091: wait confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("amqp091: publish nacked by broker")
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
