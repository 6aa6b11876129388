package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/rueidis"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

type Publisher struct {
	conf    Config
	channel string
	client  rueidis.Client

	l *slog.Logger
}

func NewPublisher(conf Config, opts connectors.PublishOptions, l *slog.Logger) (*Publisher, error) {
	channel := opts.RoutingKey
	if channel == "" {
		channel = conf.Channel
	}
	if channel == "" {
		return nil, fmt.Errorf("redis: no channel to publish to")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: conf.InitAddress,
		Username:    conf.Username,
		Password:    conf.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: new client: %w", err)
	}

	return &Publisher{
		conf:    conf,
		channel: channel,
		client:  client,
		l:       l.With("publisher_type", "redis_pubsub"),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	cmd := p.client.B().Publish().Channel(p.channel).Message(string(payload)).Build()
	if err := p.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis: publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.client.Close()
	return nil
}
