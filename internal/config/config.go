// Package config loads server settings from defaults, an optional TOML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
	Cache    CacheConfig    `toml:"cache"`
	Events   EventsConfig   `toml:"events"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

type ServerConfig struct {
	Port int `toml:"port"`
	// CORSOrigin is sent as Access-Control-Allow-Origin; empty disables CORS.
	CORSOrigin      string        `toml:"cors_origin"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret"`
	TokenTTL  time.Duration `toml:"token_ttl"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// CacheConfig selects the settlement-plan cache. A non-empty RedisAddr
// switches from the in-process LRU to Redis.
type CacheConfig struct {
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	PlanTTL       time.Duration `toml:"plan_ttl"`
	MaxGroups     int           `toml:"max_groups"`
}

// EventsConfig enables publishing activities to RabbitMQ when AMQPURL is set.
type EventsConfig struct {
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			CORSOrigin:      "*",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "./data/splitledger.db"},
		Auth:     AuthConfig{TokenTTL: 24 * time.Hour},
		Log:      LogConfig{Level: "info", Format: "text"},
		Cache: CacheConfig{
			PlanTTL:   5 * time.Minute,
			MaxGroups: 1000,
		},
		Events:  EventsConfig{AMQPExchange: "splitledger.activity"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load builds the configuration. path names an optional TOML file; a .env
// file in the working directory is loaded into the environment if present.
// The result is not validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString(&c.Database.Path, "DB_PATH")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Events.AMQPURL, "AMQP_URL")
	setString(&c.Events.AMQPExchange, "AMQP_EXCHANGE")
	setString(&c.Server.CORSOrigin, "CORS_ORIGIN")

	errs = append(errs,
		setInt(&c.Server.Port, "PORT"),
		setInt(&c.Cache.RedisDB, "REDIS_DB"),
		setDuration(&c.Auth.TokenTTL, "TOKEN_TTL"),
		setDuration(&c.Cache.PlanTTL, "PLAN_CACHE_TTL"),
		setBool(&c.Metrics.Enabled, "METRICS_ENABLED"),
	)
	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database path cannot be empty"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("invalid token ttl %v: must be positive", c.Auth.TokenTTL))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be text or json", c.Log.Format))
	}
	if c.Cache.PlanTTL < 0 {
		errs = append(errs, fmt.Errorf("invalid plan cache ttl %v", c.Cache.PlanTTL))
	}
	if c.Cache.RedisAddr == "" && c.Cache.MaxGroups < 1 {
		errs = append(errs, fmt.Errorf("invalid plan cache size %d: must be at least 1", c.Cache.MaxGroups))
	}
	if c.Events.AMQPURL != "" {
		if u, err := url.Parse(c.Events.AMQPURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid AMQP URL: %w", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Errorf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.Events.AMQPExchange == "" {
			errs = append(errs, errors.New("AMQP exchange cannot be empty when AMQP_URL is set"))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: must be a number", key, v)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: must be true or false", key, v)
	}
	*dst = b
	return nil
}
