package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Environment  string `mapstructure:"environment"`
	EnforceHTTPS bool   `mapstructure:"enforce_https"`

	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Auth      AuthConfig      `mapstructure:"auth"`

	RateLimitEnabled bool                       `mapstructure:"rate_limit_enabled"`
	RateLimitConfigs map[string]RateLimitConfig `mapstructure:"rate_limits"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogQueries   bool   `mapstructure:"log_queries"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	MetricsPort    string `mapstructure:"metrics_port"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	LokiURL string `mapstructure:"loki_url"`
}

type CacheConfig struct {
	Driver        string `mapstructure:"driver"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Prefix        string `mapstructure:"prefix"`
}

type JobsConfig struct {
	Workers        int           `mapstructure:"workers"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseRetryDelay time.Duration `mapstructure:"base_retry_delay"`
	MaxRetryDelay  time.Duration `mapstructure:"max_retry_delay"`
	SignalBuffer   int           `mapstructure:"signal_buffer"`
}

type AuthConfig struct {
	DeviceKeyHash  string        `mapstructure:"device_key_hash"`
	ActionSecret   string        `mapstructure:"action_secret"`
	ActionTokenTTL time.Duration `mapstructure:"action_token_ttl"`
	CursorSecret   string        `mapstructure:"cursor_secret"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		Environment:  "development",
		EnforceHTTPS: false,
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "todolists.db",
			MaxOpenConns: 1,
			LogQueries:   false,
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			ServiceName:    "todolists",
			ServiceVersion: "1.0.0",
			MetricsPort:    "9091",
			OTLPEndpoint:   "localhost:4317",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Cache: CacheConfig{
			Driver:    "memory",
			RedisAddr: "localhost:6379",
			Prefix:    "todolists:",
		},
		Jobs: JobsConfig{
			Workers:        4,
			PollInterval:   time.Second,
			MaxAttempts:    5,
			BaseRetryDelay: time.Second,
			MaxRetryDelay:  time.Minute,
			SignalBuffer:   64,
		},
		Auth: AuthConfig{
			ActionSecret:   "change-me",
			ActionTokenTTL: 7 * 24 * time.Hour,
			CursorSecret:   "change-me",
		},
		RateLimitEnabled: true,
		RateLimitConfigs: map[string]RateLimitConfig{
			"/signals": {
				Requests: 30,
				Window:   time.Minute,
			},
			"/notifications": {
				Requests: 60,
				Window:   time.Minute,
			},
			"/lists": {
				Requests: 300,
				Window:   time.Minute,
			},
		},
	}
}

// LoadConfig reads the YAML file at path (optional) on top of the defaults and
// applies TODOLISTS_* environment overrides.
func LoadConfig(path string) (*AppConfig, error) {
	defaults := GetDefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TODOLISTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaults)

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if len(cfg.RateLimitConfigs) == 0 {
		cfg.RateLimitConfigs = defaults.RateLimitConfigs
	}

	if cfg.Environment == "production" && cfg.Auth.ActionSecret == defaults.Auth.ActionSecret {
		return nil, errors.New("auth.action_secret must be set in production")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("environment", d.Environment)
	v.SetDefault("enforce_https", d.EnforceHTTPS)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.log_queries", d.Database.LogQueries)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.service_version", d.Telemetry.ServiceVersion)
	v.SetDefault("telemetry.metrics_port", d.Telemetry.MetricsPort)
	v.SetDefault("telemetry.otlp_endpoint", d.Telemetry.OTLPEndpoint)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.loki_url", d.Logging.LokiURL)

	v.SetDefault("cache.driver", d.Cache.Driver)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.prefix", d.Cache.Prefix)

	v.SetDefault("jobs.workers", d.Jobs.Workers)
	v.SetDefault("jobs.poll_interval", d.Jobs.PollInterval)
	v.SetDefault("jobs.max_attempts", d.Jobs.MaxAttempts)
	v.SetDefault("jobs.base_retry_delay", d.Jobs.BaseRetryDelay)
	v.SetDefault("jobs.max_retry_delay", d.Jobs.MaxRetryDelay)
	v.SetDefault("jobs.signal_buffer", d.Jobs.SignalBuffer)

	v.SetDefault("auth.device_key_hash", d.Auth.DeviceKeyHash)
	v.SetDefault("auth.action_secret", d.Auth.ActionSecret)
	v.SetDefault("auth.action_token_ttl", d.Auth.ActionTokenTTL)
	v.SetDefault("auth.cursor_secret", d.Auth.CursorSecret)

	v.SetDefault("rate_limit_enabled", d.RateLimitEnabled)
}
