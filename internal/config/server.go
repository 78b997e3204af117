package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/san-kum/wheelsim/internal/experiment"
)

// EnvPrefix namespaces environment overrides, e.g. WHEELSIM_ADDR or
// WHEELSIM_LOG_LEVEL.
const EnvPrefix = "WHEELSIM"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type ServerConfig struct {
	Addr            string             `mapstructure:"addr"`
	DataDir         string             `mapstructure:"data_dir"`
	Record          bool               `mapstructure:"record"`
	MaxPoints       int                `mapstructure:"max_points"`
	MaxMessageBytes int64              `mapstructure:"max_message_bytes"`
	AllowedOrigins  []string           `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration      `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig    `mapstructure:"rate_limit"`
	Log             LogConfig          `mapstructure:"log"`
	Simulation      experiment.Options `mapstructure:"simulation"`
}

func setServerDefaults(v *viper.Viper) {
	opts := experiment.DefaultOptions()

	v.SetDefault("addr", ":8000")
	v.SetDefault("data_dir", ".wheelsim")
	v.SetDefault("record", false)
	v.SetDefault("max_points", 0)
	v.SetDefault("max_message_bytes", 64*1024)
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("rate_limit.per_second", 2.0)
	v.SetDefault("rate_limit.burst", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("simulation.integrator", opts.Integrator)
	v.SetDefault("simulation.dt", opts.Dt)
	v.SetDefault("simulation.horizon", opts.Horizon)
	v.SetDefault("simulation.settle_hold", opts.SettleHold)
	v.SetDefault("simulation.settle_ratio", opts.SettleRatio)
	v.SetDefault("simulation.settle_floor", opts.SettleFloor)
	v.SetDefault("simulation.stop_early", opts.StopEarly)
}

// NewViper returns a viper instance with server defaults and environment
// overrides wired, ready for flag binding.
func NewViper() *viper.Viper {
	v := viper.New()
	setServerDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadServer reads server settings from v, first merging the YAML file at
// path if one is given.
func LoadServer(v *viper.Viper, path string) (*ServerConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr must not be empty")
	}
	if c.MaxPoints < 0 {
		return fmt.Errorf("config: max_points must be non-negative, got %d", c.MaxPoints)
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("config: max_message_bytes must be positive, got %d", c.MaxMessageBytes)
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("config: rate_limit needs per_second > 0 and burst >= 1")
	}
	return c.Simulation.Validate()
}
