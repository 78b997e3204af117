package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wheelsim/internal/experiment"
)

// Config is a simulation described in a YAML file or preset.
type Config struct {
	Controller string             `yaml:"controller"`
	Params     experiment.Params  `yaml:"params"`
	Options    experiment.Options `yaml:"options"`
}

func DefaultConfig() *Config {
	return &Config{
		Controller: experiment.ControllerPID,
		Params:     experiment.DefaultParams(),
		Options:    experiment.DefaultOptions(),
	}
}

// Load reads a YAML file on top of the defaults, so files only need the
// keys they change.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	return c.Options.Validate()
}
