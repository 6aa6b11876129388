package amqp10

import (
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

type Config struct {
	Addr string `yaml:"addr"`

	// Default publish target address.
	Target string `yaml:"target"`
}

func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = "amqp://localhost:5672"
	}
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return cerr.ValidationErr("addr not defined")
	}

	return nil
}
