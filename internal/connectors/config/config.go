package config

import (
	"fmt"

	"github.com/mqpipe/mqpipe/internal/connectors/impl/amqp091"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/amqp10"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/kafka"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/mqtt"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/nats"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/nsq"
	redis_pubsub "github.com/mqpipe/mqpipe/internal/connectors/impl/redis/pubsub"
	"github.com/mqpipe/mqpipe/internal/connectors/protocol"
)

// Config selects a broker protocol and carries the protocol-specific
// settings alongside. One config serves both consume and publish.
type Config struct {
	Protocol protocol.Protocol `yaml:"protocol"`

	AMQP091     amqp091.Config      `yaml:"amqp091"`
	AMQP10      amqp10.Config       `yaml:"amqp10"`
	Kafka       kafka.Config        `yaml:"kafka"`
	NatsCore    nats.Config         `yaml:"nats_core"`
	RedisPubSub redis_pubsub.Config `yaml:"redis_pubsub"`
	MQTT        mqtt.Config         `yaml:"mqtt"`
	NSQ         nsq.Config          `yaml:"nsq"`
}

func (c *Config) SetDefaults() {
	if c.Protocol == "" {
		c.Protocol = protocol.AMQP091
	}

	c.AMQP091.SetDefaults()
	c.AMQP10.SetDefaults()
	c.Kafka.SetDefaults()
	c.NatsCore.SetDefaults()
	c.RedisPubSub.SetDefaults()
	c.MQTT.SetDefaults()
	c.NSQ.SetDefaults()
}

func (c *Config) Validate() error {
	switch c.Protocol {
	case protocol.AMQP091:
		return c.AMQP091.Validate()
	case protocol.AMQP10:
		return c.AMQP10.Validate()
	case protocol.Kafka:
		return c.Kafka.Validate()
	case protocol.NatsCore:
		return c.NatsCore.Validate()
	case protocol.RedisPubSub:
		return c.RedisPubSub.Validate()
	case protocol.MQTT:
		return c.MQTT.Validate()
	case protocol.NSQ:
		return c.NSQ.Validate()
	}

	return fmt.Errorf("invalid broker protocol: %s", c.Protocol)
}
