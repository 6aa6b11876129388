package nsq

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	gonsq "github.com/nsqio/go-nsq"

	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

// Consumer wraps an NSQ subscription. Messages are FINished as soon as the
// handler returns, so only the auto-ack mode is supported (NSQ has no
// cumulative acknowledgment).
type Consumer struct {
	conf Config
	c    *gonsq.Consumer
	msgs chan []byte
	done chan struct{}

	l *slog.Logger
}

func NewConsumer(conf Config, opts connectors.ConsumeOptions, l *slog.Logger) (*Consumer, error) {
	if !opts.AutoAck {
		return nil, fmt.Errorf("nsq: windowed acknowledgment: %w", cerr.ErrNotSupported)
	}

	topic := opts.Queue
	if topic == "" {
		topic = conf.Topic
	}

	cfg := gonsq.NewConfig()
	if opts.Prefetch > 0 {
		cfg.MaxInFlight = opts.Prefetch
	}

	nc, err := gonsq.NewConsumer(topic, conf.Channel, cfg)
	if err != nil {
		return nil, fmt.Errorf("nsq: new consumer: %w", err)
	}
	nc.SetLogger(log.New(io.Discard, "", 0), gonsq.LogLevelError)

	c := &Consumer{
		conf: conf,
		c:    nc,
		msgs: make(chan []byte),
		done: make(chan struct{}),
		l:    l.With("consumer_type", "nsq"),
	}

	nc.AddHandler(gonsq.HandlerFunc(func(m *gonsq.Message) error {
		select {
		case c.msgs <- m.Body:
			return nil
		case <-c.done:
			m.Requeue(-1)
			return nil
		}
	}))

	if err := nc.ConnectToNSQD(conf.NSQDAddr); err != nil {
		return nil, fmt.Errorf("nsq: connect: %w", err)
	}

	return c, nil
}

func (c *Consumer) Next(ctx context.Context) (connectors.Delivery, error) {
	select {
	case msg := <-c.msgs:
		return connectors.Delivery{Body: msg}, nil
	case <-ctx.Done():
		return connectors.Delivery{}, ctx.Err()
	}
}

func (c *Consumer) Close() {
	close(c.done)
	c.c.Stop()
	<-c.c.StopChan
}
