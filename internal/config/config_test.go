package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue by default")
	}
	if cfg.SlotCacheTTL != 60*time.Second {
		t.Errorf("expected default slot cache TTL 60s, got %s", cfg.SlotCacheTTL)
	}
	if cfg.EmailProvider != "none" {
		t.Errorf("expected email provider none, got %s", cfg.EmailProvider)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EMAIL_PROVIDER", "SendGrid")
	t.Setenv("SLOT_CACHE_TTL", "5m")
	t.Setenv("NOTIFICATION_WORKERS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.EmailProvider != "sendgrid" {
		t.Errorf("expected normalized provider sendgrid, got %s", cfg.EmailProvider)
	}
	if cfg.SlotCacheTTL != 5*time.Minute {
		t.Errorf("expected 5m TTL, got %s", cfg.SlotCacheTTL)
	}
	if cfg.NotificationWorkers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.NotificationWorkers)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("unexpected origins: %#v", cfg.CORSAllowedOrigins)
	}
}

func TestGetEnvAsIntInvalid(t *testing.T) {
	t.Setenv("NOTIFICATION_WORKERS", "not-a-number")
	cfg := Load()
	if cfg.NotificationWorkers != 1 {
		t.Errorf("expected fallback to 1 worker, got %d", cfg.NotificationWorkers)
	}
}
