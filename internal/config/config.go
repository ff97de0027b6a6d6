package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// CLINICDESK_UPSTREAM_BASE_URL.
const EnvPrefix = "CLINICDESK"

type Config struct {
	Server    ServerConfig    `mapstructure:"server" envconfig:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream" envconfig:"upstream"`
	Session   SessionConfig   `mapstructure:"session" envconfig:"session"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" envconfig:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors" envconfig:"cors"`
	Mail      MailConfig      `mapstructure:"mail" envconfig:"mail"`
	Logging   LoggingConfig   `mapstructure:"logging" envconfig:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" envconfig:"metrics"`
	Clinic    ClinicConfig    `mapstructure:"clinic" envconfig:"clinic"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port" envconfig:"port"`
	Mode           string        `mapstructure:"mode" envconfig:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" envconfig:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" envconfig:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" envconfig:"request_timeout"`
}

// UpstreamConfig points at the clinic backend.
type UpstreamConfig struct {
	BaseURL          string        `mapstructure:"base_url" envconfig:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout" envconfig:"timeout"`
	RetryCount       int           `mapstructure:"retry_count" envconfig:"retry_count"`
	RetryWaitTime    time.Duration `mapstructure:"retry_wait_time" envconfig:"retry_wait_time"`
	RetryMaxWaitTime time.Duration `mapstructure:"retry_max_wait_time" envconfig:"retry_max_wait_time"`
	BreakerFailures  int           `mapstructure:"breaker_failures" envconfig:"breaker_failures"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout" envconfig:"breaker_timeout"`
}

type SessionConfig struct {
	Backend  string        `mapstructure:"backend" envconfig:"backend"`
	TTL      time.Duration `mapstructure:"ttl" envconfig:"ttl"`
	RedisURL string        `mapstructure:"redis_url" envconfig:"redis_url"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" envconfig:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"requests_per_second"`
	Burst             int     `mapstructure:"burst" envconfig:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" envconfig:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods" envconfig:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers" envconfig:"allowed_headers"`
}

type MailConfig struct {
	Host     string `mapstructure:"host" envconfig:"host"`
	Port     int    `mapstructure:"port" envconfig:"port"`
	Username string `mapstructure:"username" envconfig:"username"`
	Password string `mapstructure:"password" envconfig:"password"`
	From     string `mapstructure:"from" envconfig:"from"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" envconfig:"level"`
	Format string `mapstructure:"format" envconfig:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" envconfig:"enabled"`
	Path      string `mapstructure:"path" envconfig:"path"`
	Namespace string `mapstructure:"namespace" envconfig:"namespace"`
}

type ClinicConfig struct {
	// TimeZone is used to read appointment dates and times entered at the desk.
	TimeZone string `mapstructure:"time_zone" envconfig:"time_zone"`
}

// Location resolves the clinic time zone.
func (c ClinicConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)

	v.SetDefault("upstream.base_url", "http://localhost:5000/api")
	v.SetDefault("upstream.timeout", 15*time.Second)
	v.SetDefault("upstream.retry_count", 2)
	v.SetDefault("upstream.retry_wait_time", 200*time.Millisecond)
	v.SetDefault("upstream.retry_max_wait_time", 2*time.Second)
	v.SetDefault("upstream.breaker_failures", 5)
	v.SetDefault("upstream.breaker_timeout", 30*time.Second)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", 8*time.Hour)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 20.0)
	v.SetDefault("ratelimit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Desk-Session"})

	v.SetDefault("mail.port", 587)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "clinicdesk")
}

// LoadConfig reads path, or config.yml from the usual places when path is
// empty, then applies CLINICDESK_* environment overrides. A missing config
// file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.backend must be memory or redis, got %q", c.Session.Backend)
	}
	if c.Session.Backend == "redis" && c.Session.RedisURL == "" {
		return errors.New("session.redis_url is required for the redis backend")
	}
	if _, err := c.Clinic.Location(); err != nil {
		return fmt.Errorf("invalid clinic.time_zone: %w", err)
	}
	return nil
}
