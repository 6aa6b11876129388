package amqp091

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

// Consumer holds one connection and one channel for the lifetime of a
// consume session. The channel is never shared.
type Consumer struct {
	conf Config

	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery

	l *slog.Logger
}

func NewConsumer(conf Config, opts connectors.ConsumeOptions, l *slog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp091: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp091: open channel: %w", err)
	}

	if !opts.AutoAck && opts.Prefetch > 0 {
		if err := ch.Qos(opts.Prefetch, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("amqp091: set qos: %w", err)
		}
	}

	deliveries, err := ch.Consume(opts.Queue, opts.Tag, opts.AutoAck, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp091: consume: %w", err)
	}

	return &Consumer{
		conf:       conf,
		conn:       conn,
		ch:         ch,
		deliveries: deliveries,
		l:          l.With("consumer_type", "amqp091"),
	}, nil
}

func (c *Consumer) Next(ctx context.Context) (connectors.Delivery, error) {
	select {
	case d, ok := <-c.deliveries:
		if !ok {
			return connectors.Delivery{}, fmt.Errorf("amqp091: consume session closed")
		}
		return connectors.Delivery{Body: d.Body, Acker: acker{d: d}}, nil
	case <-ctx.Done():
		return connectors.Delivery{}, ctx.Err()
	}
}

func (c *Consumer) Close() {
	if c.ch != nil {
		if err := c.ch.Close(); err != nil {
			c.l.Error("amqp091: close channel", "err", err)
		}
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

type acker struct {
	d amqp.Delivery
}

func (a acker) Ack(_ context.Context, multiple bool) error {
	return a.d.Ack(multiple)
}

func (a acker) Reject(_ context.Context) error {
	return a.d.Reject(false)
}
