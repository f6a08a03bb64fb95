package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
)

const defaultEnvFile = ".env"

type Config struct {
	DatabaseDSN              string `env:"DATABASE_DSN,required=true"`
	RedisURL                 string `env:"REDIS_URL,required=true"`
	RabbitMQURL              string `env:"RABBITMQ_URL"`
	DefaultAccessToken       string `env:"IG_ACCESS_TOKEN"`
	DefaultBusinessAccountID string `env:"IG_BUSINESS_ACCOUNT_ID"`
	GraphBaseURL             string `env:"GRAPH_API_BASE_URL,default=https://graph.facebook.com"`
	GraphAPIVersion          string `env:"GRAPH_API_VERSION,default=v19.0"`
	GraphTimeoutSeconds      int    `env:"GRAPH_TIMEOUT_SECONDS,default=0"`
	SendRateLimitPerSec      int    `env:"SEND_RATE_LIMIT_PER_SEC,default=0"`
	TemplateCacheTTLSeconds  int    `env:"TEMPLATE_CACHE_TTL_SECONDS,default=300"`
	APIPort                  int    `env:"API_PORT,default=8080"`
	LogLevel                 string `env:"LOG_LEVEL,default=info"`
}

// Load reads an optional .env file from the working directory and then
// the process environment. Variables already set win over the file.
func Load() (*Config, error) {
	return LoadWithEnvFile(defaultEnvFile)
}

func LoadWithEnvFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
	}

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GraphTimeoutSeconds < 0 {
		return fmt.Errorf("failed to load config: GRAPH_TIMEOUT_SECONDS must be >= 0")
	}
	if c.SendRateLimitPerSec < 0 {
		return fmt.Errorf("failed to load config: SEND_RATE_LIMIT_PER_SEC must be >= 0")
	}
	if c.TemplateCacheTTLSeconds < 0 {
		return fmt.Errorf("failed to load config: TEMPLATE_CACHE_TTL_SECONDS must be >= 0")
	}
	return nil
}

// DefaultCredentials are used for any dispatch that does not override them.
func (c *Config) DefaultCredentials() domain.Credentials {
	return domain.Credentials{
		AccessToken:       c.DefaultAccessToken,
		BusinessAccountID: c.DefaultBusinessAccountID,
	}
}

func (c *Config) GraphTimeout() time.Duration {
	return time.Duration(c.GraphTimeoutSeconds) * time.Second
}

func (c *Config) TemplateCacheTTL() time.Duration {
	return time.Duration(c.TemplateCacheTTLSeconds) * time.Second
}
