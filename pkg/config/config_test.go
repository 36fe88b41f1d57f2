package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}

	if cfg.Upstream.BaseURL != "https://platform.example.com/api/v1" {
		t.Fatalf("unexpected upstream base url: %q", cfg.Upstream.BaseURL)
	}

	if got := cfg.Upstream.Timeout; got != 15*time.Second {
		t.Fatalf("expected default upstream timeout 15s, got %v", got)
	}

	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}

	if cfg.Cart.DefaultMaxOrderQty != 99 {
		t.Fatalf("expected default max order qty 99, got %d", cfg.Cart.DefaultMaxOrderQty)
	}

	if got := cfg.Session.CheckoutTTL(); got != 2*time.Hour {
		t.Fatalf("expected checkout ttl 2h, got %v", got)
	}

	if cfg.RateLimit.LoginLimit != 10 || cfg.RateLimit.LoginWindow != time.Minute {
		t.Fatalf("unexpected login rate limit defaults: %+v", cfg.RateLimit)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_BlankUpstreamBaseURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvUpstreamBaseURL, "   ")

	if _, err := Load(); err == nil {
		t.Fatal("expected blank upstream base url to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvUpstreamBaseURL, "https://platform.example.com/api/v1")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
}
