package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

type Publisher struct {
	conf  Config
	topic string
	cl    *kgo.Client

	l *slog.Logger
}

func NewPublisher(conf Config, opts connectors.PublishOptions, l *slog.Logger) (*Publisher, error) {
	topic := opts.RoutingKey
	if topic == "" {
		topic = conf.Topic
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: no topic to publish to")
	}

	kopts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.DefaultProduceTopic(topic),
	}
	if conf.AllowAutoTopicCreation {
		kopts = append(kopts, kgo.AllowAutoTopicCreation())
	}

	cl, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: new client: %w", err)
	}

	return &Publisher{
		conf:  conf,
		topic: topic,
		cl:    cl,
		l:     l.With("publisher_type", "kafka"),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if err := p.cl.ProduceSync(ctx, &kgo.Record{Topic: p.topic, Value: payload}).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.cl.Close()
	return nil
}
