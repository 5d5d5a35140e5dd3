package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "ishtopar/core/config"
	coredatabase "ishtopar/core/database"
	"ishtopar/internal/session"
)

// SessionConfig selects the conversation-state backend.
type SessionConfig struct {
	// Driver is "memory" or "redis".
	Driver string              `yaml:"driver" envconfig:"SESSION_DRIVER"`
	Redis  session.RedisConfig `yaml:"redis"`
}

// Config is the full application configuration: the core bot settings
// plus the database and session backends.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Session  SessionConfig       `yaml:"session"`
}

// CoreConfig satisfies cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads the YAML file, overlays environment variables, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Session.Driver))
	switch driver {
	case "":
		driver = "memory"
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.Session.Redis.Addr) == "" {
			return nil, fmt.Errorf("session.redis.addr is required when session.driver is 'redis'")
		}
	default:
		return nil, fmt.Errorf("unknown session driver: %q", cfg.Session.Driver)
	}
	cfg.Session.Driver = driver

	return &cfg, nil
}
