package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:    "dev",
		LogLevel:       "info",
		APIBaseURL:     "https://api.example.com",
		RequestTimeout: 15 * time.Second,
		RateLimitBurst: 5,
		Host:           "127.0.0.1",
		Port:           3000,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "valid dev config",
			modify:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown environment",
			modify:  func(cfg *Config) { cfg.Environment = "qa" },
			wantErr: true,
		},
		{
			name:    "api base url without scheme",
			modify:  func(cfg *Config) { cfg.APIBaseURL = "api.example.com" },
			wantErr: true,
		},
		{
			name:    "ftp api base url",
			modify:  func(cfg *Config) { cfg.APIBaseURL = "ftp://api.example.com" },
			wantErr: true,
		},
		{
			name: "http api base url in prod",
			modify: func(cfg *Config) {
				cfg.Environment = "prod"
				cfg.APIBaseURL = "http://api.example.com"
			},
			wantErr: true,
		},
		{
			name: "demo mode in prod",
			modify: func(cfg *Config) {
				cfg.Environment = "prod"
				cfg.DemoMode = true
			},
			wantErr: true,
		},
		{
			name:    "demo mode in dev",
			modify:  func(cfg *Config) { cfg.DemoMode = true },
			wantErr: false,
		},
		{
			name:    "negative request timeout",
			modify:  func(cfg *Config) { cfg.RequestTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero request timeout disables ceiling",
			modify:  func(cfg *Config) { cfg.RequestTimeout = 0 },
			wantErr: false,
		},
		{
			name: "rate limit without burst",
			modify: func(cfg *Config) {
				cfg.RateLimitRPS = 10
				cfg.RateLimitBurst = 0
			},
			wantErr: true,
		},
		{
			name:    "port out of range",
			modify:  func(cfg *Config) { cfg.Port = 70000 },
			wantErr: true,
		},
		{
			name: "wildcard origin in staging",
			modify: func(cfg *Config) {
				cfg.Environment = "staging"
				cfg.AllowedOrigins = []string{"*"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := validateConfig(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{
		APIBaseURL:     "https://api.example.com/",
		AllowedOrigins: []string{" https://a.example.com ", "", "https://b.example.com"},
		SessionFile:    "/tmp/session.json",
	}

	applyDefaults(&cfg)

	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("APIBaseURL = %q, want trailing slash removed", cfg.APIBaseURL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example.com" {
		t.Errorf("AllowedOrigins = %v, want trimmed non-empty origins", cfg.AllowedOrigins)
	}

	empty := Config{}
	applyDefaults(&empty)
	if empty.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q, want %q", empty.APIBaseURL, DefaultAPIBaseURL)
	}
	if empty.SessionFile == "" {
		t.Error("SessionFile should default to a path under the user config dir")
	}
}
