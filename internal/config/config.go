// Package config loads the inventory proxy configuration from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/Sternrassler/steam-inventory-client/pkg/client"
	"github.com/Sternrassler/steam-inventory-client/pkg/logging"
	"github.com/Sternrassler/steam-inventory-client/pkg/provider"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g.
// INVENTORY_SERVER_LISTEN_ADDR for server.listen_addr.
const EnvPrefix = "INVENTORY"

// Config is the proxy configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Client ClientConfig `mapstructure:"client"`
	Log    LogConfig    `mapstructure:"log"`
	Keys   KeysConfig   `mapstructure:"keys"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr" default:":8080"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" default:"2m"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"15s"`
}

// RedisConfig configures the cooldown store. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" default:""`
	Password string `mapstructure:"password" default:""`
	DB       int    `mapstructure:"db" default:"0"`
}

// ClientConfig configures the outgoing HTTP client.
type ClientConfig struct {
	UserAgent       string        `mapstructure:"user_agent" default:"steam-inventory-client/0.1.0"`
	RateLimit       float64       `mapstructure:"rate_limit" default:"5"`
	Burst           int           `mapstructure:"burst" default:"5"`
	Timeout         time.Duration `mapstructure:"timeout" default:"30s"`
	MaxCooldownWait time.Duration `mapstructure:"max_cooldown_wait" default:"60s"`
	Proxy           string        `mapstructure:"proxy" default:""`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level" default:"info"`
	Pretty bool   `mapstructure:"pretty" default:"false"`
}

// KeysConfig holds fallback API keys used when a request carries none.
type KeysConfig struct {
	WebAPI      string `mapstructure:"webapi" default:""`
	SteamApis   string `mapstructure:"steamapis" default:""`
	SteamSupply string `mapstructure:"steamsupply" default:""`
	SteamApiIO  string `mapstructure:"steamapiio" default:""`
}

// Load reads dir/.env if present, then the environment, over the defaults.
// Variables already set in the environment win over the .env file.
func Load(dir string) (*Config, error) {
	// Missing .env is normal in production.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	bindDefaults(v, reflect.TypeOf(Config{}), "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindDefaults registers every tagged field with its default so AutomaticEnv
// can see it.
func bindDefaults(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindDefaults(v, field.Type, key)
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Client.UserAgent) == "" {
		errs = append(errs, errors.New("client.user_agent is required"))
	}
	if c.Client.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("client.rate_limit must be >= 0, got %v", c.Client.RateLimit))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("client.timeout must be positive, got %s", c.Client.Timeout))
	}
	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// HTTPClientConfig converts the client section. Redis is attached by the caller.
func (c *Config) HTTPClientConfig() client.Config {
	cfg := client.DefaultConfig(c.Client.UserAgent)
	cfg.RateLimit = c.Client.RateLimit
	cfg.Burst = c.Client.Burst
	cfg.Timeout = c.Client.Timeout
	cfg.MaxCooldownWait = c.Client.MaxCooldownWait
	cfg.Proxy = c.Client.Proxy
	return cfg
}

// LoggingConfig converts the log section.
func (c *Config) LoggingConfig(service string) logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(strings.ToLower(c.Log.Level))
	cfg.Pretty = c.Log.Pretty
	cfg.Service = service
	return cfg
}

// APIKey returns the configured fallback key for a provider.
func (c *Config) APIKey(kind provider.Kind) string {
	switch kind {
	case provider.KindWebAPI:
		return c.Keys.WebAPI
	case provider.KindSteamApis:
		return c.Keys.SteamApis
	case provider.KindSteamSupply:
		return c.Keys.SteamSupply
	case provider.KindSteamApiIO:
		return c.Keys.SteamApiIO
	}
	return ""
}
