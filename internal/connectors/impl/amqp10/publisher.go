package amqp10

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/go-amqp"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

// Publisher sends settled-by-receiver messages: Send does not return until
// the peer settles the transfer.
type Publisher struct {
	conf Config

	conn    *amqp.Conn
	session *amqp.Session
	sender  *amqp.Sender

	l *slog.Logger
}

func NewPublisher(conf Config, opts connectors.PublishOptions, l *slog.Logger) (*Publisher, error) {
	target := opts.RoutingKey
	if target == "" {
		target = conf.Target
	}
	if target == "" {
		return nil, fmt.Errorf("amqp10: no target to publish to")
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

	sender, err := session.NewSender(context.Background(), target, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp10: new sender: %w", err)
	}

	return &Publisher{
		conf:    conf,
		conn:    conn,
		session: session,
		sender:  sender,
		l:       l.With("publisher_type", "amqp10"),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if err := p.sender.Send(ctx, amqp.NewMessage(payload), nil); err != nil {
		return fmt.Errorf("amqp10: send: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.sender.Close(context.Background()); err != nil {
		p.l.Error("amqp10: close sender", "err", err)
	}
	if err := p.session.Close(context.Background()); err != nil {
		p.l.Error("amqp10: close session", "err", err)
	}
	return p.conn.Close()
}
