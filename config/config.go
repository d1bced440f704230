package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type (
	// Config holds the settings shared by the API server, the web UI and the CLI.
	Config struct {
		Env      string       `toml:"env"`      // local, dev or prod
		Language string       `toml:"language"` // UI language tag
		Server   ServerConfig `toml:"server"`
		CORS     CORSConfig   `toml:"cors"`
		Client   ClientConfig `toml:"client"`
		Web      WebConfig    `toml:"web"`
		Redis    RedisConfig  `toml:"redis"`
		Log      LogConfig    `toml:"log"`
	}

	ServerConfig struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	}

	CORSConfig struct {
		AllowedOrigin    string `toml:"allowed_origin"`
		AllowCredentials bool   `toml:"allow_credentials"`
	}

	// ClientConfig configures how the web UI and CLI reach the API.
	ClientConfig struct {
		BaseURL string `toml:"base_url"`
	}

	WebConfig struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	}

	// RedisConfig configures the optional ticket store.
	RedisConfig struct {
		Enabled  bool   `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Seed     bool   `toml:"seed"` // add sample tickets when the store is empty
	}

	LogConfig struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	}
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	defaultPort          = 8080
	defaultWebPort       = 3000
	defaultBaseURL       = "http://localhost:8080"
	defaultAllowedOrigin = "http://localhost:3000"
	defaultRedisAddr     = "127.0.0.1:6379"
	defaultLanguage      = "en"
)

// ValidationError reports a configuration field with an unusable value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config error [%s]: %s", e.Field, e.Message)
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Env:      EnvLocal,
		Language: defaultLanguage,
		Server: ServerConfig{
			Port: defaultPort,
		},
		CORS: CORSConfig{
			AllowedOrigin:    defaultAllowedOrigin,
			AllowCredentials: true,
		},
		Client: ClientConfig{
			BaseURL: defaultBaseURL,
		},
		Web: WebConfig{
			Port: defaultWebPort,
		},
		Redis: RedisConfig{
			Addr: defaultRedisAddr,
			Seed: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path (if
// path is not empty) and environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: key, Message: fmt.Sprintf("%q is not a number", v)}
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Field: key, Message: fmt.Sprintf("%q is not a boolean", v)}
		}
		*dst = b
		return nil
	}

	str("FARMCARE_ENV", &cfg.Env)
	str("FARMCARE_LANG", &cfg.Language)
	str("FARMCARE_HOST", &cfg.Server.Host)
	str("FARMCARE_API_BASE_URL", &cfg.Client.BaseURL)
	str("FARMCARE_CORS_ORIGIN", &cfg.CORS.AllowedOrigin)
	str("FARMCARE_LOG_LEVEL", &cfg.Log.Level)
	str("FARMCARE_LOG_FILE", &cfg.Log.File)
	str("FARMCARE_REDIS_ADDR", &cfg.Redis.Addr)
	str("FARMCARE_REDIS_PASSWORD", &cfg.Redis.Password)

	return errors.Join(
		num("PORT", &cfg.Server.Port),
		num("FARMCARE_WEB_PORT", &cfg.Web.Port),
		num("FARMCARE_REDIS_DB", &cfg.Redis.DB),
		flag("FARMCARE_REDIS_ENABLED", &cfg.Redis.Enabled),
	)
}

// Validate checks that the configuration can be used to start the services.
func Validate(cfg *Config) error {
	switch cfg.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return &ValidationError{Field: "env", Message: fmt.Sprintf("unsupported environment %q", cfg.Env)}
	}
	if cfg.Language == "" {
		return &ValidationError{Field: "language", Message: "must not be empty"}
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: fmt.Sprintf("%d is out of range", cfg.Server.Port)}
	}
	if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
		return &ValidationError{Field: "web.port", Message: fmt.Sprintf("%d is out of range", cfg.Web.Port)}
	}
	u, err := url.Parse(cfg.Client.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: "client.base_url", Message: fmt.Sprintf("%q is not an absolute URL", cfg.Client.BaseURL)}
	}
	if strings.TrimSpace(cfg.CORS.AllowedOrigin) == "" {
		return &ValidationError{Field: "cors.allowed_origin", Message: "must not be empty"}
	}
	if !strings.HasPrefix(cfg.CORS.AllowedOrigin, "http://") && !strings.HasPrefix(cfg.CORS.AllowedOrigin, "https://") {
		return &ValidationError{Field: "cors.allowed_origin", Message: fmt.Sprintf("%q must start with http:// or https://", cfg.CORS.AllowedOrigin)}
	}
	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return &ValidationError{Field: "redis.addr", Message: "required when redis is enabled"}
	}
	return nil
}

// ServerAddr is the listen address of the API server.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// WebAddr is the listen address of the web UI.
func (c *Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}
