package nats

import (
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

type Config struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = "nats://localhost:4222"
	}
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return cerr.ValidationErr("url not defined")
	}

	return nil
}
