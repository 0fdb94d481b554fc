package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

type Config struct {
	Token        string  `env:"TOKEN,required,notEmpty"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`

	APIBaseURL string `env:"API_BASE_URL" envDefault:"https://claw.rotur.dev"`
	FeedLimit  int    `env:"FEED_LIMIT"   envDefault:"100"`

	AuthURL         string `env:"AUTH_URL"          envDefault:"https://rotur.dev/auth"`
	AuthReturnParam string `env:"AUTH_RETURN_PARAM" envDefault:"return_to"`
	AuthStateSecret string `env:"AUTH_STATE_SECRET"`
	CallbackAddr    string `env:"CALLBACK_ADDR"`
	CallbackURL     string `env:"CALLBACK_URL"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH"      envDefault:"db.sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	Timezone        string        `env:"TIMEZONE"         envDefault:"UTC"`
	DigestSpec      string        `env:"DIGEST_SPEC"      envDefault:"0 9 * * *"`
	NotificationTTL time.Duration `env:"NOTIFICATION_TTL" envDefault:"3s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.StoreDriver {
	case StoreSQLite, StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for store driver %q", cfg.StoreDriver)
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required for store driver %q", cfg.StoreDriver)
		}
	default:
		return Config{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.FeedLimit <= 0 {
		return Config{}, fmt.Errorf("FEED_LIMIT must be positive, got %d", cfg.FeedLimit)
	}

	return cfg, nil
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
