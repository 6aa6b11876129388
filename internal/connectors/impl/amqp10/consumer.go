package amqp10

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/go-amqp"

	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

// Consumer wraps an AMQP 1.0 receiver. AMQP 1.0 settles deliveries
// individually, so cumulative acknowledgment cannot be expressed and only
// the auto-ack mode (settle on receipt) is supported.
type Consumer struct {
	conf Config

	conn     *amqp.Conn
	session  *amqp.Session
	receiver *amqp.Receiver

	l *slog.Logger
}

func NewConsumer(conf Config, opts connectors.ConsumeOptions, l *slog.Logger) (*Consumer, error) {
	if !opts.AutoAck {
		return nil, fmt.Errorf("amqp10: windowed acknowledgment: %w", cerr.ErrNotSupported)
	}

	conn, err := amqp.Dial(context.Background(), conf.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("amqp10: dial: %w", err)
	}

	session, err := conn.NewSession(context.Background(), nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp10: new session: %w", err)
	}

	ropts := &amqp.ReceiverOptions{}
	if opts.Prefetch > 0 {
		ropts.Credit = int32(opts.Prefetch)
	}
	if opts.Tag != "" {
		ropts.Name = opts.Tag
	}

	receiver, err := session.NewReceiver(context.Background(), opts.Queue, ropts)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp10: new receiver: %w", err)
	}

	return &Consumer{
		conf:     conf,
		conn:     conn,
		session:  session,
		receiver: receiver,
		l:        l.With("consumer_type", "amqp10"),
	}, nil
}

func (c *Consumer) Next(ctx context.Context) (connectors.Delivery, error) {
	msg, err := c.receiver.Receive(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return connectors.Delivery{}, ctx.Err()
		}
		return connectors.Delivery{}, fmt.Errorf("amqp10: receive: %w", err)
	}

	if err := c.receiver.AcceptMessage(context.Background(), msg); err != nil {
		return connectors.Delivery{}, fmt.Errorf("amqp10: accept: %w", err)
	}

	return connectors.Delivery{Body: msg.GetData()}, nil
}

func (c *Consumer) Close() {
	if err := c.receiver.Close(context.Background()); err != nil {
		c.l.Error("amqp10: close receiver", "err", err)
	}
	if err := c.session.Close(context.Background()); err != nil {
		c.l.Error("amqp10: close session", "err", err)
	}
	_ = c.conn.Close()
}
