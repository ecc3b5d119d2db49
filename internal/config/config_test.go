package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TICKET_API_URL", "http://tickets.internal:8000/")
	t.Setenv("APP_PORT", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TicketAPI.BaseURL != "http://tickets.internal:8000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.TicketAPI.BaseURL)
	}
	if cfg.App.Addr() != "0.0.0.0:3000" {
		t.Fatalf("unexpected addr %q", cfg.App.Addr())
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("redis should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsRelativeURL(t *testing.T) {
	cfg := &Config{TicketAPI: TicketAPIConfig{BaseURL: "localhost:8000"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for URL without scheme")
	}
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	cfg := &Config{
		App:       AppConfig{Env: "production"},
		TicketAPI: TicketAPIConfig{BaseURL: "https://api.example.com"},
		Security:  SecurityConfig{Secret: "dev-secret"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected production secret check to fail")
	}
}

func TestInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	if _, err := Load(); err == nil {
		t.Fatalf("expected REDIS_DB parse error")
	}
}
