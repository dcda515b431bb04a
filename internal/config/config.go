package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

// DefaultAPIBaseURL is the production API origin used when API_BASE_URL is not set
const DefaultAPIBaseURL = "https://api.inksa.com.br"

const (
	// ServerShutdownTimeout is the timeout for graceful console server shutdown
	ServerShutdownTimeout = 10 * time.Second

	// SessionCookieName identifies the browser session held by the console server
	SessionCookieName = "inksa_console_session"

	// CORSMaxAgeInSeconds is the preflight cache duration (24 hours)
	CORSMaxAgeInSeconds = 86400
)

// Config is shared by the CLI and the console server
type Config struct {
	Environment    string        `env:"ENVIRONMENT,default=dev"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	APIBaseURL     string        `env:"API_BASE_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=15s"` // 0 disables the per-request ceiling
	DemoMode       bool          `env:"DEMO_MODE,default=false"`
	SessionFile    string        `env:"SESSION_FILE"`
	RateLimitRPS   int           `env:"API_RATE_LIMIT_RPS,default=0"` // 0 disables outbound throttling
	RateLimitBurst int           `env:"API_RATE_LIMIT_BURST,default=5"`
	Host           string        `env:"HOST,default=127.0.0.1"`
	Port           int           `env:"PORT,default=3000"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS,separator=|"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"perf":    true,
	"prod":    true,
	"staging": true,
}

// NewConfig loads the configuration from the environment and validates it
func NewConfig() (*Config, error) {
	var cfg Config

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if cfg.SessionFile == "" {
		cfg.SessionFile = DefaultSessionFile()
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if o := strings.TrimSpace(origin); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.AllowedOrigins = origins
}

// DefaultSessionFile returns <user config dir>/inksa-admin/session.json, falling back to the working directory
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".inksa-admin-session.json")
	}
	return filepath.Join(dir, "inksa-admin", "session.json")
}

func validateConfig(cfg *Config) error {
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid environment '%s'. Valid environments: dev, test, perf, staging, prod", cfg.Environment)
	}

	u, err := url.ParseRequestURI(cfg.APIBaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("API_BASE_URL is not a valid URL: %s", cfg.APIBaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL must use http or https: %s", cfg.APIBaseURL)
	}
	if cfg.Environment == "prod" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL must use https in production: %s", cfg.APIBaseURL)
	}

	if cfg.DemoMode && cfg.Environment == "prod" {
		return fmt.Errorf("DEMO_MODE cannot be enabled in the prod environment")
	}

	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("request timeout cannot be negative, got %v", cfg.RequestTimeout)
	}

	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("API_RATE_LIMIT_RPS cannot be negative, got %d", cfg.RateLimitRPS)
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst < 1 {
		return fmt.Errorf("API_RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}

	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %v", cfg.IdleTimeout)
	}

	if cfg.Environment == "prod" || cfg.Environment == "staging" {
		for _, origin := range cfg.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("ALLOWED_ORIGINS must not be set to '*' in %v", cfg.Environment)
			}
		}
	}

	return nil
}
