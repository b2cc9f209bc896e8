package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/signon/pkg/observability"
)

// The identity-provider emulator always listens on this fixed address.
const (
	EmulatorHost = "localhost"
	EmulatorPort = 9099
)

// Redirect store backends
const (
	RedirectStoreMemory = "memory"
	RedirectStoreRedis  = "redis"
)

// Config holds all application configuration. It is loaded once at startup
// and passed down by value; nothing mutates it afterwards.
type Config struct {
	Auth          AuthConfig          `yaml:"auth"`
	Session       SessionConfig       `yaml:"session"`
	RedirectStore RedirectStoreConfig `yaml:"redirect_store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// AuthConfig selects the authentication strategy and carries the
// identity-provider connection parameters
type AuthConfig struct {
	Enabled         bool           `yaml:"enabled"`
	EmulatorEnabled bool           `yaml:"emulator"`
	Provider        ProviderParams `yaml:"provider"`
}

// ProviderParams are the identity-provider connection parameters
type ProviderParams struct {
	APIKey     string `yaml:"api_key"`
	AuthDomain string `yaml:"auth_domain"`
	ProjectID  string `yaml:"project_id"`
	AppID      string `yaml:"app_id"`

	// OpenID Connect client used for redirect sign-in
	IssuerURL    string `yaml:"issuer_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"-"`
	RedirectURL  string `yaml:"redirect_url"`
}

// SessionConfig points at the backend that exchanges identity tokens for sessions
type SessionConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedirectStoreConfig configures where pending redirect sign-ins are kept
type RedirectStoreConfig struct {
	Type          string        `yaml:"type"`
	TTL           time.Duration `yaml:"ttl"`
	RedisURL      string        `yaml:"redis_url"`
	RedisPassword string        `yaml:"-"`
	RedisDB       int           `yaml:"redis_db"`
	KeyPrefix     string        `yaml:"key_prefix"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled     bool   `yaml:"otel_enabled"`
	OTelEndpoint    string `yaml:"otel_endpoint"`
	OTelServiceName string `yaml:"otel_service_name"`
	OTelInsecure    bool   `yaml:"otel_insecure"`
}

// EmulatorAddr returns the emulator host:port
func (a AuthConfig) EmulatorAddr() string {
	return net.JoinHostPort(EmulatorHost, strconv.Itoa(EmulatorPort))
}

// Level returns the parsed log level
func (o ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLogLevel(o.LogLevel)
}

// Tracing converts the OpenTelemetry settings for observability.InitTracing
func (o ObservabilityConfig) Tracing(version string) observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: version,
		Insecure:       o.OTelInsecure,
	}
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Auth: AuthConfig{
			Provider: ProviderParams{
				IssuerURL:   "https://accounts.google.com",
				RedirectURL: "http://localhost:8085/auth/callback",
			},
		},
		Session: SessionConfig{
			Timeout: 15 * time.Second,
		},
		RedirectStore: RedirectStoreConfig{
			Type:      RedirectStoreMemory,
			TTL:       10 * time.Minute,
			RedisDB:   -1,
			KeyPrefix: "signon:redirect:",
		},
		Observability: ObservabilityConfig{
			LogLevel:        "info",
			OTelEndpoint:    "localhost:4317",
			OTelServiceName: "signon",
			OTelInsecure:    true,
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by SIGNON_CONFIG_FILE, and then environment variables, in that order
func LoadConfig() (Config, error) {
	cfg := Default()

	if path := getEnv("SIGNON_CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	loadAuthConfig(&cfg.Auth)
	loadSessionConfig(&cfg.Session)
	loadRedirectStoreConfig(&cfg.RedirectStore)
	loadObservabilityConfig(&cfg.Observability)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadAuthConfig(cfg *AuthConfig) {
	cfg.Enabled = getEnvBool("SIGNON_AUTH_ENABLED", cfg.Enabled)
	cfg.EmulatorEnabled = getEnvBool("SIGNON_AUTH_EMULATOR", cfg.EmulatorEnabled)

	p := &cfg.Provider
	p.APIKey = getEnv("SIGNON_API_KEY", p.APIKey)
	p.AuthDomain = getEnv("SIGNON_AUTH_DOMAIN", p.AuthDomain)
	p.ProjectID = getEnv("SIGNON_PROJECT_ID", p.ProjectID)
	p.AppID = getEnv("SIGNON_APP_ID", p.AppID)
	p.IssuerURL = getEnv("SIGNON_OIDC_ISSUER_URL", p.IssuerURL)
	p.ClientID = getEnv("SIGNON_OIDC_CLIENT_ID", p.ClientID)
	p.ClientSecret = getEnv("SIGNON_OIDC_CLIENT_SECRET", p.ClientSecret)
	p.RedirectURL = getEnv("SIGNON_OIDC_REDIRECT_URL", p.RedirectURL)
}

func loadSessionConfig(cfg *SessionConfig) {
	cfg.URL = getEnv("SIGNON_SESSION_URL", cfg.URL)
	cfg.Timeout = getEnvDuration("SIGNON_SESSION_TIMEOUT", cfg.Timeout)
}

func loadRedirectStoreConfig(cfg *RedirectStoreConfig) {
	cfg.Type = strings.ToLower(getEnv("SIGNON_REDIRECT_STORE", cfg.Type))
	cfg.TTL = getEnvDuration("SIGNON_REDIRECT_TTL", cfg.TTL)
	cfg.RedisURL = getEnv("SIGNON_REDIS_URL", cfg.RedisURL)
	cfg.RedisPassword = getEnv("SIGNON_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("SIGNON_REDIS_DB", cfg.RedisDB)
	cfg.KeyPrefix = getEnv("SIGNON_REDIS_KEY_PREFIX", cfg.KeyPrefix)
}

func loadObservabilityConfig(cfg *ObservabilityConfig) {
	cfg.LogLevel = getEnv("SIGNON_LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsEnabled = getEnvBool("SIGNON_METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.OTelEnabled = getEnvBool("SIGNON_OTEL_ENABLED", cfg.OTelEnabled)
	cfg.OTelEndpoint = getEnv("SIGNON_OTEL_ENDPOINT", cfg.OTelEndpoint)
	cfg.OTelServiceName = getEnv("SIGNON_OTEL_SERVICE_NAME", cfg.OTelServiceName)
	cfg.OTelInsecure = getEnvBool("SIGNON_OTEL_INSECURE", cfg.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Auth.Enabled {
		if c.Session.URL == "" {
			return fmt.Errorf("session backend URL is required when auth is enabled")
		}
		if _, err := url.ParseRequestURI(c.Session.URL); err != nil {
			return fmt.Errorf("invalid session backend URL: %w", err)
		}

		if c.Auth.EmulatorEnabled {
			if c.Auth.Provider.APIKey == "" {
				return fmt.Errorf("api key is required in emulator mode")
			}
		} else {
			p := c.Auth.Provider
			if p.IssuerURL == "" {
				return fmt.Errorf("OIDC issuer URL is required")
			}
			if p.ClientID == "" {
				return fmt.Errorf("OIDC client id is required")
			}
			if p.RedirectURL == "" {
				return fmt.Errorf("OIDC redirect URL is required")
			}
			if _, err := url.ParseRequestURI(p.RedirectURL); err != nil {
				return fmt.Errorf("invalid OIDC redirect URL: %w", err)
			}
		}
	}

	switch c.RedirectStore.Type {
	case RedirectStoreMemory:
	case RedirectStoreRedis:
		if c.RedirectStore.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis redirect store")
		}
	default:
		return fmt.Errorf("invalid redirect store type: %s (must be memory or redis)", c.RedirectStore.Type)
	}
	if c.RedirectStore.TTL <= 0 {
		return fmt.Errorf("redirect TTL must be positive")
	}

	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
