// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port         int   `yaml:"port"`
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type EngineConfig struct {
	AccountWebhookURL string        `yaml:"account_webhook_url"`
	HashtagWebhookURL string        `yaml:"hashtag_webhook_url"`
	StatusURL         string        `yaml:"status_url"`
	CallbackURL       string        `yaml:"callback_url"`
	Timeout           time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StoreConfig struct {
	Backend string      `yaml:"backend"` // memory | redis
	Redis   RedisConfig `yaml:"redis"`
}

type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
	Store  StoreConfig  `yaml:"store"`
	Poll   PollConfig   `yaml:"poll"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, expands ${VAR} references from the
// environment (webhook URLs and credentials stay out of the file) and applies
// defaults plus minimal validation.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 10 << 20 // 10 MiB payload ceiling
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Engine.Timeout <= 0 {
		cfg.Engine.Timeout = 30 * time.Second
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = 5 * time.Second
	}
	if cfg.Poll.MaxAttempts <= 0 {
		cfg.Poll.MaxAttempts = 60
	}

	// Minimal validation
	if cfg.Engine.AccountWebhookURL == "" {
		return nil, errors.New("engine.account_webhook_url is required")
	}
	if cfg.Engine.HashtagWebhookURL == "" {
		return nil, errors.New("engine.hashtag_webhook_url is required")
	}
	if cfg.Engine.StatusURL == "" {
		return nil, errors.New("engine.status_url is required")
	}
	switch cfg.Store.Backend {
	case "memory":
	case "redis":
		if cfg.Store.Redis.Addr == "" {
			return nil, errors.New("store.redis.addr is required for the redis backend")
		}
	default:
		return nil, fmt.Errorf("store.backend must be memory or redis, got %q", cfg.Store.Backend)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
