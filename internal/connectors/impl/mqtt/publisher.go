package mqtt

import (
	"context"
	"fmt"
	"log/slog"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/mqpipe/mqpipe/internal/connectors"
)

type Publisher struct {
	conf   Config
	topic  string
	client paho.Client

	l *slog.Logger
}

func NewPublisher(conf Config, opts connectors.PublishOptions, l *slog.Logger) (*Publisher, error) {
	topic := opts.RoutingKey
	if topic == "" {
		topic = conf.Topic
	}
	if topic == "" {
		return nil, fmt.Errorf("mqtt: no topic to publish to")
	}

	copts := paho.NewClientOptions().
		AddBroker(conf.Broker).
		SetClientID(conf.ClientID)
	if conf.Username != "" {
		copts.SetUsername(conf.Username)
		copts.SetPassword(conf.Password)
	}

	client := paho.NewClient(copts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", token.Error())
	}

	return &Publisher{
		conf:   conf,
		topic:  topic,
		client: client,
		l:      l.With("publisher_type", "mqtt"),
	}, nil
}

func (p *Publisher) Publish(_ context.Context, payload []byte) error {
	token := p.client.Publish(p.topic, p.conf.QoS, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt: publish: %w", token.Error())
	}
	return nil
}

func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
