package mqtt

import (
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

type Config struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = "tcp://localhost:1883"
	}
	if c.ClientID == "" {
		c.ClientID = "mqpipe"
	}
}

func (c *Config) Validate() error {
	if c.Broker == "" {
		return cerr.ValidationErr("broker not defined")
	}
	if c.QoS > 2 {
		return cerr.ValidationErr("qos must be 0, 1 or 2")
	}

	return nil
}
