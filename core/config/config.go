package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Store backends selectable via store.backend.
const (
	StoreSupabase = "supabase"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	// AdminChatID receives payment receipts for manual confirmation.
	// Zero means admin notifications are skipped (registrations still persist).
	AdminChatID            int64  `yaml:"admin_chat_id" envconfig:"ADMIN_CHAT_ID"`
	RunMode                string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	LongPollTimeoutSeconds int    `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook listener settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Dir     string `yaml:"dir"`
	File    string `yaml:"file"`
	Profile string `yaml:"profile"`
}

// RateLimitConfig holds settings for per-user rate limiting.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Update kinds accepted by rate_limit.exclude_updates.
const (
	UpdateCallback = "callback"
	UpdateMessage  = "message"
)

// SupabaseConfig points at the PostgREST endpoint backing the registration store.
type SupabaseConfig struct {
	URL string `yaml:"url" envconfig:"SUPABASE_URL"`
	Key string `yaml:"key" envconfig:"SUPABASE_API_KEY"`
}

// PostgresConfig holds settings for the self-hosted store backend.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// StoreConfig selects and configures the registration store backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend" envconfig:"STORE_BACKEND"`
	Table    string         `yaml:"table" envconfig:"STORE_TABLE"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SessionConfig bounds the lifetime of abandoned dialogue sessions.
type SessionConfig struct {
	TTLHours             int `yaml:"ttl_hours" envconfig:"SESSION_TTL_HOURS"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" envconfig:"SESSION_SWEEP_INTERVAL_MINUTES"`
}

// BookingConfig carries payment instructions rendered to users after registration.
type BookingConfig struct {
	KaspiPayURL      string `yaml:"kaspi_pay_url" envconfig:"KASPI_PAY_URL"`
	PaymentRecipient string `yaml:"payment_recipient"`
	ContactNote      string `yaml:"contact_note"`
}

// Plan is a purchasable package definition from the static catalog section.
type Plan struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Price       int64  `yaml:"price"`
	Description string `yaml:"description"`
	Group       string `yaml:"group"`
	Label       string `yaml:"label"`
}

// CatalogConfig is the static plan catalog loaded at process start.
type CatalogConfig struct {
	Plans []Plan `yaml:"plans"`
}

// Config aggregates all bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Store     StoreConfig     `yaml:"store"`
	Session   SessionConfig   `yaml:"session"`
	Booking   BookingConfig   `yaml:"booking"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

// Load reads configuration from a YAML file and overlays environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults. Validation errors
// are collected so a broken config reports everything at once.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	var errs *multierror.Error

	if cfg.Telegram.Token == "" {
		errs = multierror.Append(errs, fmt.Errorf("telegram.token is required"))
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			errs = multierror.Append(errs, fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'"))
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			errs = multierror.Append(errs, fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'"))
		}
		if cfg.Webhook.Port <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'"))
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			errs = multierror.Append(errs, fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode))
	}
	cfg.Telegram.RunMode = rm

	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if key != UpdateCallback && key != UpdateMessage {
			errs = multierror.Append(errs, fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v))
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	errs = multierror.Append(errs, normalizeStore(&cfg.Store))
	errs = multierror.Append(errs, normalizeCatalog(&cfg.Catalog))

	if cfg.Session.TTLHours < 0 {
		errs = multierror.Append(errs, fmt.Errorf("session.ttl_hours must be >= 0"))
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 24
	}
	if cfg.Session.SweepIntervalMinutes <= 0 {
		cfg.Session.SweepIntervalMinutes = 30
	}

	return errs.ErrorOrNil()
}

func normalizeStore(sc *StoreConfig) error {
	var errs *multierror.Error

	backend := strings.ToLower(strings.TrimSpace(sc.Backend))
	if backend == "" {
		backend = StoreSupabase
	}
	sc.Backend = backend

	if strings.TrimSpace(sc.Table) == "" {
		sc.Table = "photosession_registrations"
	}

	switch backend {
	case StoreSupabase:
		if strings.TrimSpace(sc.Supabase.URL) == "" {
			errs = multierror.Append(errs, fmt.Errorf("store.supabase.url is required for the supabase backend"))
		}
		if strings.TrimSpace(sc.Supabase.Key) == "" {
			errs = multierror.Append(errs, fmt.Errorf("store.supabase.key is required for the supabase backend"))
		}
	case StorePostgres:
		if strings.TrimSpace(sc.Postgres.Host) == "" {
			errs = multierror.Append(errs, fmt.Errorf("store.postgres.host is required for the postgres backend"))
		}
		if strings.TrimSpace(sc.Postgres.Name) == "" {
			errs = multierror.Append(errs, fmt.Errorf("store.postgres.name is required for the postgres backend"))
		}
		if sc.Postgres.Port == "" {
			sc.Postgres.Port = "5432"
		}
		if sc.Postgres.SSLMode == "" {
			sc.Postgres.SSLMode = "disable"
		}
		if sc.Postgres.MaxConnections <= 0 {
			sc.Postgres.MaxConnections = 5
		}
	case StoreMemory:
		// No settings; meant for development and tests.
	default:
		errs = multierror.Append(errs, fmt.Errorf("invalid store.backend %q; allowed: supabase, postgres, memory", sc.Backend))
	}

	return errs.ErrorOrNil()
}

func normalizeCatalog(cc *CatalogConfig) error {
	var errs *multierror.Error

	if len(cc.Plans) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("catalog.plans must contain at least one plan"))
	}
	seen := make(map[string]struct{}, len(cc.Plans))
	for i := range cc.Plans {
		p := &cc.Plans[i]
		p.ID = strings.TrimSpace(p.ID)
		switch {
		case p.ID == "":
			errs = multierror.Append(errs, fmt.Errorf("catalog.plans[%d]: id is required", i))
		case p.Name == "":
			errs = multierror.Append(errs, fmt.Errorf("catalog.plans[%d] (%s): name is required", i, p.ID))
		case p.Price <= 0:
			errs = multierror.Append(errs, fmt.Errorf("catalog.plans[%d] (%s): price must be > 0", i, p.ID))
		}
		if _, dup := seen[p.ID]; dup && p.ID != "" {
			errs = multierror.Append(errs, fmt.Errorf("catalog.plans: duplicate id %q", p.ID))
		}
		seen[p.ID] = struct{}{}
		if p.Label == "" {
			p.Label = p.Name
		}
	}

	return errs.ErrorOrNil()
}
