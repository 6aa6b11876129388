package nsq

import (
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

type Config struct {
	NSQDAddr string `yaml:"nsqd_addr"`
	Topic    string `yaml:"topic"`
	Channel  string `yaml:"channel"`
}

func (c *Config) SetDefaults() {
	if c.NSQDAddr == "" {
		c.NSQDAddr = "localhost:4150"
	}
	if c.Channel == "" {
		c.Channel = "mqpipe"
	}
}

func (c *Config) Validate() error {
	if c.NSQDAddr == "" {
		return cerr.ValidationErr("nsqd_addr not defined")
	}
	if c.Channel == "" {
		return cerr.ValidationErr("channel not defined")
	}

	return nil
}
