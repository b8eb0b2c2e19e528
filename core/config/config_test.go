package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", AdminChatID: 777},
		Store: StoreConfig{
			Backend:  StoreSupabase,
			Supabase: SupabaseConfig{URL: "https://x.supabase.co", Key: "anon"},
		},
		Catalog: CatalogConfig{Plans: []Plan{
			{ID: "solo1", Name: "Solo Базовый", Price: 200000},
		}},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run mode default: %q", cfg.Telegram.RunMode)
	}
	if cfg.Store.Table != "photosession_registrations" {
		t.Errorf("table default: %q", cfg.Store.Table)
	}
	if cfg.Session.TTLHours != 24 || cfg.Session.SweepIntervalMinutes != 30 {
		t.Errorf("session defaults: %+v", cfg.Session)
	}
	if cfg.Catalog.Plans[0].Label != "Solo Базовый" {
		t.Errorf("label should fall back to name: %q", cfg.Catalog.Plans[0].Label)
	}
}

func TestNormalizeCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Telegram: TelegramConfig{RunMode: "carrier-pigeon"},
		Store:    StoreConfig{Backend: "supabase"},
	}
	err := Normalize(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	for _, want := range []string{"telegram.token", "run_mode", "supabase.url", "catalog.plans"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %q, got: %v", want, msg)
		}
	}
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "webhook.url") {
		t.Fatalf("expected webhook.url error, got %v", err)
	}

	cfg = validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	cfg.Webhook = WebhookConfig{URL: "https://bot.example.kz/hook", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("valid webhook config rejected: %v", err)
	}
}

func TestNormalizeStoreBackends(t *testing.T) {
	cfg := validConfig()
	cfg.Store = StoreConfig{Backend: "postgres", Postgres: PostgresConfig{Host: "localhost", Name: "bot"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("postgres backend: %v", err)
	}
	if cfg.Store.Postgres.Port != "5432" || cfg.Store.Postgres.SSLMode != "disable" {
		t.Errorf("postgres defaults: %+v", cfg.Store.Postgres)
	}

	cfg = validConfig()
	cfg.Store = StoreConfig{Backend: "memory"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("memory backend: %v", err)
	}

	cfg = validConfig()
	cfg.Store.Backend = "redis"
	if err := Normalize(cfg); err == nil {
		t.Fatal("unknown backend must be rejected")
	}
}

func TestNormalizeRateLimitExcludes(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "message"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != "callback" {
		t.Errorf("exclude not normalized: %v", cfg.RateLimit.ExcludeUpdates)
	}

	cfg = validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("unsupported exclude kind must be rejected")
	}
}

func TestNormalizeDuplicatePlans(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Plans = append(cfg.Catalog.Plans, Plan{ID: "solo1", Name: "copy", Price: 1})
	if err := Normalize(cfg); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate plan error, got %v", err)
	}
}
