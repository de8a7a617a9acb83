// Package config loads service configuration from defaults, an optional
// YAML file and POSTS_API_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hatchways-assessment/posts-api/pkg/cache"
	"github.com/hatchways-assessment/posts-api/pkg/client"
	"github.com/hatchways-assessment/posts-api/pkg/logging"
)

// EnvPrefix is prepended to every environment override, e.g. POSTS_API_SERVER_PORT.
const EnvPrefix = "POSTS_API"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CacheErrors     bool          `mapstructure:"cache_errors"`     // also store 4xx/5xx responses
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"` // 0 = lazy expiry only
}

// UpstreamConfig configures the blog posts API client.
type UpstreamConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests/s; 0 = no limit
	RateBurst      int           `mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// NewViper returns a viper instance carrying the defaults and env binding.
// Callers may bind flags into it before passing it to LoadFrom.
func NewViper() *viper.Viper {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("cache.ttl", cache.DefaultTTL)
	v.SetDefault("cache.cache_errors", false)
	v.SetDefault("cache.cleanup_interval", time.Minute)

	v.SetDefault("upstream.base_url", client.DefaultBaseURL)
	v.SetDefault("upstream.user_agent", "posts-api/0.1.0")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.max_concurrency", 4)
	v.SetDefault("upstream.max_attempts", 2)
	v.SetDefault("upstream.initial_backoff", 200*time.Millisecond)
	v.SetDefault("upstream.rate_limit", 0)
	v.SetDefault("upstream.rate_burst", 0)

	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration using a fresh viper instance. An empty path
// searches ./config.yaml, /etc/posts-api/ and $HOME/.posts-api; a missing
// file there is not an error.
func Load(path string) (*Config, error) {
	return LoadFrom(NewViper(), path)
}

// LoadFrom reads configuration into v and validates it.
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/posts-api/")
		v.AddConfigPath("$HOME/.posts-api")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be > 0 (got %s)", c.Server.ShutdownTimeout))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be > 0 (got %s)", c.Cache.TTL))
	}
	if c.Cache.CleanupInterval < 0 {
		errs = append(errs, fmt.Errorf("cache.cleanup_interval must be >= 0 (got %s)", c.Cache.CleanupInterval))
	}
	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("upstream.base_url must be an absolute http(s) url (got %q)", c.Upstream.BaseURL))
	}
	if c.Upstream.UserAgent == "" {
		errs = append(errs, errors.New("upstream.user_agent is required"))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("upstream.timeout must be > 0 (got %s)", c.Upstream.Timeout))
	}
	if c.Upstream.MaxConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("upstream.max_concurrency must be > 0 (got %d)", c.Upstream.MaxConcurrency))
	}
	if c.Upstream.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("upstream.max_attempts must be > 0 (got %d)", c.Upstream.MaxAttempts))
	}
	if c.Upstream.InitialBackoff < 0 {
		errs = append(errs, fmt.Errorf("upstream.initial_backoff must be >= 0 (got %s)", c.Upstream.InitialBackoff))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// CachePolicy maps cache.cache_errors onto a cache.Policy.
func (c *Config) CachePolicy() cache.Policy {
	if c.Cache.CacheErrors {
		return cache.PolicyAll
	}
	return cache.PolicySuccessOnly
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// ClientConfig builds the upstream client configuration. The limiter is
// left for the caller to attach.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.Upstream.BaseURL, c.Upstream.UserAgent)
	cfg.Timeout = c.Upstream.Timeout
	cfg.Retry.MaxAttempts = c.Upstream.MaxAttempts
	cfg.Retry.InitialBackoff = c.Upstream.InitialBackoff
	return cfg
}

// LoggingConfig builds the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}
