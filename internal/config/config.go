package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	BackendURL    string `envconfig:"BACKEND_URL" required:"true"`
	BackendAPIKey string `envconfig:"BACKEND_API_KEY"`

	SessionSecret string `envconfig:"SESSION_SECRET" required:"true"`
	SecureCookies bool   `envconfig:"SECURE_COOKIES" default:"false"`

	FirebaseAPIKey   string `envconfig:"FIREBASE_API_KEY" required:"true"`
	TokenEndpoint    string `envconfig:"TOKEN_ENDPOINT"`
	IdentityEndpoint string `envconfig:"IDENTITY_ENDPOINT"`

	SentryDSN         string  `envconfig:"SENTRY_DSN"`
	SentryEnvironment string  `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
	SentrySampleRate  float64 `envconfig:"SENTRY_SAMPLE_RATE" default:"0.1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LEXGATE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
