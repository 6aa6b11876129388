package protocol

type Protocol string

const (
	AMQP091     Protocol = "amqp091"
	AMQP10      Protocol = "amqp10"
	Kafka       Protocol = "kafka"
	NatsCore    Protocol = "nats_core"
	RedisPubSub Protocol = "redis_pubsub"
	MQTT        Protocol = "mqtt"
	NSQ         Protocol = "nsq"
)
