package kafka

import (
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

type Config struct {
	Brokers                []string `yaml:"brokers"`
	Topic                  string   `yaml:"topic"`
	Group                  string   `yaml:"group"`
	AllowAutoTopicCreation bool     `yaml:"allow_auto_topic_creation"`
}

func (c *Config) SetDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.Group == "" {
		c.Group = "mqpipe"
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return cerr.ValidationErr("brokers not defined")
	}
	if c.Group == "" {
		return cerr.ValidationErr("group not defined")
	}

	return nil
}
