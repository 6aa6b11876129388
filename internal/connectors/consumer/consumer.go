package consumer

import (
	"fmt"
	"log/slog"

	"github.com/mqpipe/mqpipe/internal/connectors"
	"github.com/mqpipe/mqpipe/internal/connectors/config"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/amqp091"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/amqp10"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/kafka"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/mqtt"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/nats"
	"github.com/mqpipe/mqpipe/internal/connectors/impl/nsq"
	redis_pubsub "github.com/mqpipe/mqpipe/internal/connectors/impl/redis/pubsub"
	"github.com/mqpipe/mqpipe/internal/connectors/protocol"
)

func New(conf config.Config, opts connectors.ConsumeOptions, l *slog.Logger) (connectors.Consumer, error) {
	switch conf.Protocol {
	case protocol.AMQP091:
		return amqp091.NewConsumer(conf.AMQP091, opts, l)
	case protocol.AMQP10:
		return amqp10.NewConsumer(conf.AMQP10, opts, l)
	case protocol.Kafka:
		return kafka.NewConsumer(conf.Kafka, opts, l)
	case protocol.NatsCore:
		return nats.NewConsumer(conf.NatsCore, opts, l)
	case protocol.RedisPubSub:
		return redis_pubsub.NewConsumer(conf.RedisPubSub, opts, l)
	case protocol.MQTT:
		return mqtt.NewConsumer(conf.MQTT, opts, l)
	case protocol.NSQ:
		return nsq.NewConsumer(conf.NSQ, opts, l)
	}

	return nil, fmt.Errorf("invalid consumer protocol: %s", conf.Protocol)
}
