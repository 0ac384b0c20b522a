// Package config loads service settings from .env, the environment and an optional yaml file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "BUDGETLY"

type Config struct {
	Port           int
	DataBackend    string
	PostgresURL    string
	SQLitePath     string
	JWTSecret      string
	SessionTTL     time.Duration
	LedgerPageSize int
	AMQPURL        string
	AMQPExchange   string
	LogLevel       string
	LogFormat      string
	GinMode        string
}

var defaults = map[string]any{
	"port":             8080,
	"data_backend":     "postgres",
	"sqlite_path":      "budgetly.db",
	"session_ttl":      24 * time.Hour,
	"ledger_page_size": 8,
	"amqp_exchange":    "budgetly",
	"log_level":        "info",
	"log_format":       "text",
	"gin_mode":         "release",
}

var keys = []string{
	"port", "data_backend", "postgres_url", "sqlite_path", "jwt_secret", "session_ttl",
	"ledger_page_size", "amqp_url", "amqp_exchange", "log_level", "log_format", "gin_mode",
}

// New returns a viper instance with defaults and environment bindings. Every key is read from
// BUDGETLY_<KEY> and, for compatibility with existing deployments, from the bare <KEY>.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, k := range keys {
		env := strings.ToUpper(k)
		_ = v.BindEnv(k, EnvPrefix+"_"+env, env)
	}
	return v
}

// Load reads .env (if present), then the optional yaml file, then the environment.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := New()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := FromViper(v)
	return cfg, cfg.Validate()
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:           v.GetInt("port"),
		DataBackend:    strings.ToLower(v.GetString("data_backend")),
		PostgresURL:    v.GetString("postgres_url"),
		SQLitePath:     v.GetString("sqlite_path"),
		JWTSecret:      v.GetString("jwt_secret"),
		SessionTTL:     v.GetDuration("session_ttl"),
		LedgerPageSize: v.GetInt("ledger_page_size"),
		AMQPURL:        v.GetString("amqp_url"),
		AMQPExchange:   v.GetString("amqp_exchange"),
		LogLevel:       strings.ToLower(v.GetString("log_level")),
		LogFormat:      strings.ToLower(v.GetString("log_format")),
		GinMode:        v.GetString("gin_mode"),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.DataBackend {
	case "postgres":
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required for the postgres backend"))
		}
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("DATA_BACKEND must be postgres, sqlite or memory, got %q", c.DataBackend))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.LedgerPageSize < 1 {
		errs = append(errs, errors.New("LEDGER_PAGE_SIZE must be at least 1"))
	}

	if c.AMQPURL != "" {
		u, err := url.Parse(c.AMQPURL)
		if err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
			errs = append(errs, errors.New("AMQP_URL must be an amqp:// or amqps:// URL"))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, errors.New("AMQP_EXCHANGE is required when AMQP_URL is set"))
		}
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}
