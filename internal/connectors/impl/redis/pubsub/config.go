package pubsub

import (
	"github.com/mqpipe/mqpipe/internal/connectors/cerr"
)

type Config struct {
	InitAddress []string `yaml:"init_address"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	Channel     string   `yaml:"channel"`
}

func (c *Config) SetDefaults() {
	if len(c.InitAddress) == 0 {
		c.InitAddress = []string{"localhost:6379"}
	}
}

func (c *Config) Validate() error {
	if len(c.InitAddress) == 0 {
		return cerr.ValidationErr("init_address not defined")
	}

	return nil
}
