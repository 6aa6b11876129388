package nsq

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	gonsq "github.com/nsqio/go-nsq"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

type Publisher struct {
	conf  Config
	topic string
	p     *gonsq.Producer

	l *slog.Logger
}

func NewPublisher(conf Config, opts connectors.PublishOptions, l *slog.Logger) (*Publisher, error) {
	topic := opts.RoutingKey
	if topic == "" {
		topic = conf.Topic
	}
	if topic == "" {
		return nil, fmt.Errorf("nsq: no topic to publish to")
	}

	p, err := gonsq.NewProducer(conf.NSQDAddr, gonsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq: new producer: %w", err)
	}
	p.SetLogger(log.New(io.Discard, "", 0), gonsq.LogLevelError)

	if err := p.Ping(); err != nil {
		p.Stop()
		return nil, fmt.Errorf("nsq: ping: %w", err)
	}

	return &Publisher{
		conf:  conf,
		topic: topic,
		p:     p,
		l:     l.With("publisher_type", "nsq"),
	}, nil
}

// Publish is synchronous: go-nsq waits for the nsqd response frame.
func (p *Publisher) Publish(_ context.Context, payload []byte) error {
	if err := p.p.Publish(p.topic, payload); err != nil {
		return fmt.Errorf("nsq: publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.p.Stop()
	return nil
}
