package infra

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"production"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	APIPort     int    `env:"API_PORT" envDefault:"8080"`

	// Storage
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"postgres"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	DatabaseURL   string `env:"DATABASE_URL"`
	PGHost        string `env:"PGHOST" envDefault:"localhost"`
	PGPort        int    `env:"PGPORT" envDefault:"5432"`
	PGUser        string `env:"PGUSER" envDefault:"raidroster"`
	PGPassword    string `env:"PGPASSWORD" envDefault:"raidroster"`
	PGDatabase    string `env:"PGDATABASE" envDefault:"raidroster"`

	// Token auth (third-party identity provider)
	Auth0Domain           string `env:"AUTH0_DOMAIN"`
	Auth0Audience         string `env:"AUTH0_AUDIENCE"`
	AuthOIDCDiscovery     bool   `env:"AUTH_OIDC_DISCOVERY" envDefault:"false"`
	AuthSuppressChallenge bool   `env:"AUTH_SUPPRESS_CHALLENGE" envDefault:"false"`

	// AuthJWKSJSON pins the signing-key set instead of fetching it from the issuer.
	AuthJWKSJSON string `env:"AUTH_JWKS_JSON"`

	// Static API keys
	APIKeys []string `env:"API_KEYS" envSeparator:","`

	// Feedback
	FeedbackSink       string        `env:"FEEDBACK_SINK" envDefault:"webhook"`
	FeedbackWebhookURL string        `env:"FEEDBACK_WEBHOOK_URL"`
	FeedbackRateLimit  int           `env:"FEEDBACK_RATE_LIMIT" envDefault:"10"`
	FeedbackRateWindow time.Duration `env:"FEEDBACK_RATE_WINDOW" envDefault:"1h"`

	// Per-IP request throttle across all routes. 0 disables it.
	APIRateLimit  int           `env:"API_RATE_LIMIT" envDefault:"600"`
	APIRateWindow time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`

	// Redis (shared rate-limit counters)
	RedisURL string `env:"REDIS_URL"`

	// Kafka
	KafkaBrokers       string `env:"KAFKA_BROKERS"`
	KafkaFeedbackTopic string `env:"KAFKA_FEEDBACK_TOPIC" envDefault:"feedback"`
	KafkaConsumerGroup string `env:"KAFKA_CONSUMER_GROUP" envDefault:"feedback-relay"`

	// Feedback relay
	RelayMaxAttempts int           `env:"RELAY_MAX_ATTEMPTS" envDefault:"5"`
	RelayBackoff     time.Duration `env:"RELAY_BACKOFF" envDefault:"2s"`

	// HTTP
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	TrustProxyHeaders  bool   `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// LoadConfig loads an optional .env file and parses environment variables into a Config.
func LoadConfig() (*Config, error) {
	// A missing .env is fine: the process environment is authoritative.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for configuration that cannot work.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment)
	}
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.StoreDriver)
	}
	switch c.FeedbackSink {
	case "webhook":
	case "kafka":
		if c.KafkaBrokers == "" {
			return fmt.Errorf("FEEDBACK_SINK=kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("FEEDBACK_SINK must be webhook or kafka, got %q", c.FeedbackSink)
	}
	if c.Auth0Domain != "" && c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required when AUTH0_DOMAIN is set")
	}
	if c.FeedbackRateLimit < 1 {
		return fmt.Errorf("FEEDBACK_RATE_LIMIT must be positive, got %d", c.FeedbackRateLimit)
	}
	if c.FeedbackRateWindow <= 0 {
		return fmt.Errorf("FEEDBACK_RATE_WINDOW must be positive, got %s", c.FeedbackRateWindow)
	}
	if c.APIRateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative, got %d", c.APIRateLimit)
	}
	if c.APIRateLimit > 0 && c.APIRateWindow <= 0 {
		return fmt.Errorf("API_RATE_WINDOW must be positive, got %s", c.APIRateWindow)
	}
	return nil
}

// IsDevelopment reports whether detailed error text may be returned to clients.
func (c *Config) IsDevelopment() bool { return c.Environment == EnvDevelopment }

// TokenAuthEnabled reports whether bearer tokens can be validated.
func (c *Config) TokenAuthEnabled() bool { return c.Auth0Domain != "" }

// Authority is the expected token issuer, "https://<domain>/".
func (c *Config) Authority() string {
	if c.Auth0Domain == "" {
		return ""
	}
	d := strings.TrimSuffix(c.Auth0Domain, "/")
	if !strings.HasPrefix(d, "https://") && !strings.HasPrefix(d, "http://") {
		d = "https://" + d
	}
	return d + "/"
}

// JWKSURL is the issuer's published signing-key set.
func (c *Config) JWKSURL() string {
	if c.Auth0Domain == "" {
		return ""
	}
	return c.Authority() + ".well-known/jwks.json"
}

// DiscoveryURL is the issuer's OpenID configuration document.
func (c *Config) DiscoveryURL() string {
	if c.Auth0Domain == "" {
		return ""
	}
	return c.Authority() + ".well-known/openid-configuration"
}

// SlogLevel maps LOG_LEVEL to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
