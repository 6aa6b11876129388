package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

// Consumer wraps a core NATS subscription. Core NATS has no client
// acknowledgments, so only the auto-ack mode is supported.
type Consumer struct {
	conf Config
	nc   *nats.Conn
	sub  *nats.Subscription
	msgs chan *nats.Msg

	l *slog.Logger
}

func NewConsumer(conf Config, opts connectors.ConsumeOptions, l *slog.Logger) (*Consumer, error) {
	if !opts.AutoAck {
		return nil, fmt.Errorf("nats: windowed acknowledgment: %w", cerr.ErrNotSupported)
	}

	nc, err := nats.Connect(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}

	subject := opts.Queue
	if subject == "" {
		subject = conf.Subject
	}

	msgs := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(subject, msgs)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats: subscribe: %w", err)
	}

	return &Consumer{
		conf: conf,
		nc:   nc,
		sub:  sub,
		msgs: msgs,
		l:    l.With("consumer_type", "nats_core"),
	}, nil
}

func (c *Consumer) Next(ctx context.Context) (connectors.Delivery, error) {
	select {
	case msg, ok := <-c.msgs:
		if !ok {
			return connectors.Delivery{}, fmt.Errorf("nats: subscription closed")
		}
		return connectors.Delivery{Body: msg.Data}, nil
	case <-ctx.Done():
		return connectors.Delivery{}, ctx.Err()
	}
}

func (c *Consumer) Close() {
	if err := c.sub.Unsubscribe(); err != nil {
		c.l.Error("nats: unsubscribe", "err", err)
	}
	c.nc.Close()
}
