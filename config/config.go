// Package config loads application configuration from environment
// variables (prefix FOLIO) and an optional config.yaml in the working
// directory.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`

	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`
	// DSN is the postgres connection string, or the sqlite file path.
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	// Addr empty means no Redis; the rate limiter falls back to an
	// in-process token bucket.
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	CookieName    string        `mapstructure:"cookie_name"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminEmail    string        `mapstructure:"admin_email"`
	// AdminPassword is the bootstrap password; leave empty to skip the
	// startup admin bootstrap.
	AdminPassword string `mapstructure:"admin_password"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Window       time.Duration `mapstructure:"window"`
	AuthLimit    int           `mapstructure:"auth_limit"`
	GeneralLimit int           `mapstructure:"general_limit"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TracingConfig struct {
	// OTLPEndpoint empty disables tracing.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads config.yaml if present, then overlays FOLIO_* environment
// variables. It fails when production is missing required secrets.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "development")
	v.SetDefault("port", "3001")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "folio.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.cookie_name", "auth_token")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_email", "admin@localhost")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:3001"})
	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("rate_limit.auth_limit", 20)
	v.SetDefault("rate_limit.general_limit", 1000)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("tracing.otlp_endpoint", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("FOLIO_AUTH_JWT_SECRET is required in production")
		}
		cfg.Auth.JWTSecret = "dev-only-secret"
	}
	if cfg.IsProduction() && cfg.Database.Driver == "postgres" && cfg.Database.DSN == "" {
		return nil, fmt.Errorf("FOLIO_DATABASE_DSN is required in production")
	}
	return &cfg, nil
}
