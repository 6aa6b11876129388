package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/rueidis"

	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

// Consumer bridges a redis pub/sub subscription. Pub/sub is fire and forget
// on the broker side, so only the auto-ack mode is supported.
type Consumer struct {
	conf   Config
	client rueidis.Client

	msgs   chan []byte
	errs   chan error
	cancel context.CancelFunc

	l *slog.Logger
}

func NewConsumer(conf Config, opts connectors.ConsumeOptions, l *slog.Logger) (*Consumer, error) {
	if !opts.AutoAck {
		return nil, fmt.Errorf("redis: windowed acknowledgment: %w", cerr.ErrNotSupported)
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: conf.InitAddress,
		Username:    conf.Username,
		Password:    conf.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: new client: %w", err)
	}

	channel := opts.Queue
	if channel == "" {
		channel = conf.Channel
	}

	recvCtx, cancel := context.WithCancel(context.Background())

	c := &Consumer{
		conf:   conf,
		client: client,
		msgs:   make(chan []byte),
		errs:   make(chan error, 1),
		cancel: cancel,
		l:      l.With("consumer_type", "redis_pubsub"),
	}

	go func() {
		err := client.Receive(recvCtx, client.B().Subscribe().Channel(channel).Build(), func(msg rueidis.PubSubMessage) {
			select {
			case c.msgs <- []byte(msg.Message):
			case <-recvCtx.Done():
			}
		})
		if err != nil && recvCtx.Err() == nil {
			c.errs <- fmt.Errorf("redis: receive: %w", err)
		}
	}()

	return c, nil
}

func (c *Consumer) Next(ctx context.Context) (connectors.Delivery, error) {
	select {
	case msg := <-c.msgs:
		return connectors.Delivery{Body: msg}, nil
	case err := <-c.errs:
		return connectors.Delivery{}, err
	case <-ctx.Done():
		return connectors.Delivery{}, ctx.Err()
	}
}

func (c *Consumer) Close() {
	c.cancel()
	c.client.Close()
}
