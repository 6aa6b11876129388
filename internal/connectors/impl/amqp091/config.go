package amqp091

import (
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

type Config struct {
	URL string `yaml:"url"`

	// Default publish destination. The routing key can be overridden per
	// invocation.
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = "amqp://localhost:5672/%2f"
	}
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return cerr.ValidationErr("url not defined")
	}

	return nil
}
