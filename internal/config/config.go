package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	cconfig "github.com/mqpipe/mqpipe/internal/connectors/config"
	"github.com/mqpipe/mqpipe/internal/consume"
	"github.com/mqpipe/mqpipe/internal/observability"
)

type Config struct {
	Log           LogConfig            `yaml:"log"`
	Broker        cconfig.Config       `yaml:"broker"`
	Consume       consume.Config       `yaml:"consume"`
	Observability observability.Config `yaml:"observability"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Type selects the slog handler: tint, text or json.
	Type string `yaml:"type"`
}

func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "INFO"
	}
	if c.Log.Type == "" {
		c.Log.Type = "tint"
	}

	c.Broker.SetDefaults()
	c.Consume.SetDefaults()
}

func (c *Config) Validate() error {
	if err := c.Broker.Validate(); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	if err := c.Consume.Validate(); err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	return nil
}

// Load reads an optional YAML config file. With an empty path the usual
// locations are probed and a missing file just means defaults.
func Load(filePath string, cfg *Config) error {
	paths := []string{}
	required := filePath != ""

	if filePath == "" {
		paths = append(paths, "./mqpipe.yaml", "conf/mqpipe.yaml", "config/mqpipe.yaml")
	} else {
		paths = append(paths, filePath)
	}

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}

		cfg.SetDefaults()
		return nil
	}

	if required {
		return fmt.Errorf("failed to find config in: %v", paths)
	}

	cfg.SetDefaults()
	return nil
}
