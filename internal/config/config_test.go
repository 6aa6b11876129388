package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqpipe/mqpipe/internal/connectors/protocol"
	"github.com/mqpipe/mqpipe/internal/consume"
)

func TestLoadExplicitFile(t *testing.T) {
	raw := `
log:
  level: DEBUG
  type: json
broker:
  protocol: kafka
  kafka:
    brokers: ["broker1:9092", "broker2:9092"]
    group: liner
consume:
  batch_size: 64
  idle_timeout: 250ms
  parse_error_ack: true
`
	path := filepath.Join(t.TempDir(), "mqpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	var conf Config
	require.NoError(t, Load(path, &conf))

	assert.Equal(t, "DEBUG", conf.Log.Level)
	assert.Equal(t, "json", conf.Log.Type)
	assert.Equal(t, protocol.Kafka, conf.Broker.Protocol)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, conf.Broker.Kafka.Brokers)
	assert.Equal(t, "liner", conf.Broker.Kafka.Group)
	assert.Equal(t, 64, conf.Consume.BatchSize)
	assert.Equal(t, 250*time.Millisecond, conf.Consume.IdleTimeout)
	assert.True(t, conf.Consume.ParseErrorAck)
	assert.False(t, conf.Consume.NewlineErrorAck)

	// Defaults still fill the sections the file left out.
	assert.Equal(t, "amqp://localhost:5672/%2f", conf.Broker.AMQP091.URL)

	require.NoError(t, conf.Validate())
}

func TestLoadMissingOptionalFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	var conf Config
	require.NoError(t, Load("", &conf))

	assert.Equal(t, "INFO", conf.Log.Level)
	assert.Equal(t, "tint", conf.Log.Type)
	assert.Equal(t, protocol.AMQP091, conf.Broker.Protocol)
	assert.Equal(t, "amqp://localhost:5672/%2f", conf.Broker.AMQP091.URL)
	assert.Equal(t, consume.DefaultBatchSize, conf.Consume.BatchSize)
	assert.Equal(t, consume.DefaultIdleTimeout, conf.Consume.IdleTimeout)

	require.NoError(t, conf.Validate())
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	var conf Config
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.yaml"), &conf))
}

func TestValidateRejectsUnknownProtocol(t *testing.T) {
	var conf Config
	conf.SetDefaults()
	conf.Broker.Protocol = "carrier_pigeon"

	assert.Error(t, conf.Validate())
}
