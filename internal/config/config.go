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

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL          string `yaml:"url"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	EventChannel string `yaml:"event_channel"`
}

type TokenServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	HMACSecret string `yaml:"hmac_secret"`
	// DevPrincipals is honored only with -dev: every listed principal is
	// treated as authorized without a token.
	DevPrincipals []string `yaml:"dev_principals"`
}

type EscrowConfig struct {
	// Account is the principal the escrow holds funds under at the token
	// service.
	Account string `yaml:"account"`
}

type SchedulerConfig struct {
	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval"`
}

type Config struct {
	Log       LogConfig          `yaml:"log"`
	HTTP      HTTPConfig         `yaml:"http"`
	Database  DatabaseConfig     `yaml:"database"`
	Redis     RedisConfig        `yaml:"redis"`
	Token     TokenServiceConfig `yaml:"token"`
	Auth      AuthConfig         `yaml:"auth"`
	Escrow    EscrowConfig       `yaml:"escrow"`
	Scheduler SchedulerConfig    `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Token.Timeout <= 0 {
		cfg.Token.Timeout = 10 * time.Second
	}
	if cfg.Scheduler.ExpirySweepInterval <= 0 {
		cfg.Scheduler.ExpirySweepInterval = time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Token.BaseURL == "" {
		return nil, errors.New("token.base_url is required")
	}
	if cfg.Escrow.Account == "" {
		return nil, errors.New("escrow.account is required")
	}
	if cfg.Auth.HMACSecret == "" && !dev {
		return nil, errors.New("auth.hmac_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
