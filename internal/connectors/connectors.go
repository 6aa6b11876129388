// Package connectors defines the broker-facing capability set the rest of
// the program is written against: a blocking delivery source, a confirmed
// publisher, and an acknowledgment handle. Protocol implementations live
// under impl/.
package connectors

import "context"

// Delivery is one message received from the broker. It is owned exclusively
// by the caller from receipt until its Acker is consumed by an ack or reject.
type Delivery struct {
	Body  []byte
	Acker Acker
}

// Acker settles a single delivery. An ack with multiple=true is cumulative:
// it also settles every prior unacknowledged delivery on the same consume
// session, in receipt order. Reject is always single-delivery.
type Acker interface {
	Ack(ctx context.Context, multiple bool) error
	Reject(ctx context.Context) error
}

// Consumer is an open consume session. Next blocks until a delivery arrives
// or ctx is done; it returns ctx.Err() unwrapped on expiry so callers can
// tell an idle timeout from a transport failure.
type Consumer interface {
	Next(ctx context.Context) (Delivery, error)
	Close()
}

// Publisher sends one payload per call and does not return until the broker
// confirmed it (or the protocol's closest equivalent).
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
	Close() error
}

type ConsumeOptions struct {
	// Queue is the source to consume from: queue, topic, subject or channel
	// depending on protocol.
	Queue string
	// Tag identifies the consume session where the protocol supports it.
	Tag string
	// AutoAck requests broker-side auto acknowledgment. Connectors without
	// client acks only support this mode.
	AutoAck bool
	// Prefetch caps unacknowledged deliveries in flight. Ignored by
	// connectors without a flow control knob.
	Prefetch int
}

type PublishOptions struct {
	// Exchange is the destination exchange (amqp091 only).
	Exchange string
	// RoutingKey is the routing key, topic, subject or channel depending on
	// protocol. Empty falls back to the connector's configured destination.
	RoutingKey string
}
