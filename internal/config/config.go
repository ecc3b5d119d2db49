package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the web client.
type Config struct {
	App       AppConfig
	TicketAPI TicketAPIConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Security  SecurityConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// TicketAPIConfig points at the remote ticket service.
type TicketAPIConfig struct {
	BaseURL string
}

// RedisConfig holds Redis connection values. An empty Addr selects the
// in-memory stores.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SecurityConfig covers form tokens and sessions.
type SecurityConfig struct {
	Secret              string
	FormTokenTTLMinutes int
	SessionTTLMinutes   int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-web"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		TicketAPI: TicketAPIConfig{
			BaseURL: strings.TrimRight(getEnv("TICKET_API_URL", "http://localhost:8000"), "/"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Security: SecurityConfig{
			Secret:              getEnv("UI_SECRET", "dev-secret"),
			FormTokenTTLMinutes: getEnvAsInt("FORM_TOKEN_TTL_MINUTES", 60),
			SessionTTLMinutes:   getEnvAsInt("SESSION_TTL_MINUTES", 120),
		},
	}

	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	u, err := url.Parse(c.TicketAPI.BaseURL)
	if err != nil {
		return fmt.Errorf("config: invalid TICKET_API_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("config: TICKET_API_URL must be an absolute http(s) URL, got %q", c.TicketAPI.BaseURL)
	}
	if c.App.Env == "production" && c.Security.Secret == "dev-secret" {
		return errors.New("config: in production UI_SECRET is required")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// FormTokenTTL returns how long a rendered form may be submitted.
func (s SecurityConfig) FormTokenTTL() time.Duration {
	return minutes(s.FormTokenTTLMinutes, 60)
}

// SessionTTL returns the idle lifetime of a browser session.
func (s SecurityConfig) SessionTTL() time.Duration {
	return minutes(s.SessionTTLMinutes, 120)
}

func minutes(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
