package publisher

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

func New(conf config.Config, opts connectors.PublishOptions, l *slog.Logger) (connectors.Publisher, error) {
	switch conf.Protocol {
	case protocol.AMQP091:
		return amqp091.NewPublisher(conf.AMQP091, opts, l)
	case protocol.AMQP10:
		return amqp10.NewPublisher(conf.AMQP10, opts, l)
	case protocol.Kafka:
		return kafka.NewPublisher(conf.Kafka, opts, l)
	case protocol.NatsCore:
		return nats.NewPublisher(conf.NatsCore, opts, l)
	case protocol.RedisPubSub:
		return redis_pubsub.NewPublisher(conf.RedisPubSub, opts, l)
	case protocol.MQTT:
		return mqtt.NewPublisher(conf.MQTT, opts, l)
	case protocol.NSQ:
		return nsq.NewPublisher(conf.NSQ, opts, l)
	}

	return nil, fmt.Errorf("invalid publisher protocol: %s", conf.Protocol)
}
