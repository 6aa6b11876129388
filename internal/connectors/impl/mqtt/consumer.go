package mqtt

import (
	"context"
	"fmt"
	"log/slog"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

// Consumer wraps an MQTT subscription. The paho client settles messages as
// part of its QoS flow, so only the auto-ack mode is supported.
type Consumer struct {
	conf   Config
	topic  string
	client paho.Client
	msgs   chan []byte

	l *slog.Logger
}

func NewConsumer(conf Config, opts connectors.ConsumeOptions, l *slog.Logger) (*Consumer, error) {
	if !opts.AutoAck {
		return nil, fmt.Errorf("mqtt: windowed acknowledgment: %w", cerr.ErrNotSupported)
	}

	clientID := conf.ClientID
	if opts.Tag != "" {
		clientID = opts.Tag
	}

	copts := paho.NewClientOptions().
		AddBroker(conf.Broker).
		SetClientID(clientID)
	if conf.Username != "" {
		copts.SetUsername(conf.Username)
		copts.SetPassword(conf.Password)
	}

	client := paho.NewClient(copts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", token.Error())
	}

	topic := opts.Queue
	if topic == "" {
		topic = conf.Topic
	}

	c := &Consumer{
		conf:   conf,
		topic:  topic,
		client: client,
		msgs:   make(chan []byte, 64),
		l:      l.With("consumer_type", "mqtt"),
	}

	token := client.Subscribe(topic, conf.QoS, func(_ paho.Client, msg paho.Message) {
		c.msgs <- msg.Payload()
	})
	if token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("mqtt: subscribe: %w", token.Error())
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
	if token := c.client.Unsubscribe(c.topic); token.Wait() && token.Error() != nil {
		c.l.Error("mqtt: unsubscribe", "err", token.Error())
	}
	c.client.Disconnect(250)
}
