// Package app assembles the photosession booking bot from its parts.
package app

import (
	"fmt"
	"time"

	"github.com/wowmotion/bookingbot/booking/catalog"
	"github.com/wowmotion/bookingbot/booking/flow"
	"github.com/wowmotion/bookingbot/booking/session"
	"github.com/wowmotion/bookingbot/booking/store"
	coreconfig "github.com/wowmotion/bookingbot/core/config"
	"github.com/wowmotion/bookingbot/core/database"
	"github.com/wowmotion/bookingbot/core/logger"
	coretelegram "github.com/wowmotion/bookingbot/core/telegram"
	"github.com/wowmotion/bookingbot/core/telegram/commands"
	"github.com/wowmotion/bookingbot/core/telegram/router"
	"log/slog"

	"context"

	tele "gopkg.in/telebot.v4"
)

// App holds the wired application state.
type App struct {
	cfg         *coreconfig.Config
	booking     coreconfig.BookingConfig
	adminChatID int64

	catalog  *catalog.Catalog
	sessions *session.Manager
	store    store.Store
	engine   *flow.Engine
	notifier *telegramNotifier
}

// Bootstrap builds the application from configuration: logger, catalog,
// store backend, session manager and the flow engine.
func Bootstrap(cfg *coreconfig.Config) (*App, error) {
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("app: init logger: %w", err)
	}

	cat, err := catalog.New(cfg.Catalog.Plans)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	st, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager()
	sessions.StartSweeper(
		time.Duration(cfg.Session.TTLHours)*time.Hour,
		time.Duration(cfg.Session.SweepIntervalMinutes)*time.Minute,
	)

	notifier := newTelegramNotifier(cfg.Telegram.AdminChatID)
	engine := flow.NewEngine(cat, sessions, st, notifier)

	logger.L.With("component", "app").Info("bootstrap complete",
		slog.String("event", "bootstrap"),
		slog.String("store_backend", cfg.Store.Backend),
		slog.Int("plans", len(cfg.Catalog.Plans)),
	)

	return &App{
		cfg:         cfg,
		booking:     cfg.Booking,
		adminChatID: cfg.Telegram.AdminChatID,
		catalog:     cat,
		sessions:    sessions,
		store:       st,
		engine:      engine,
		notifier:    notifier,
	}, nil
}

func buildStore(cfg *coreconfig.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case coreconfig.StoreSupabase:
		st, err := store.NewSupabaseStore(cfg.Store.Supabase.URL, cfg.Store.Supabase.Key, cfg.Store.Table)
		if err != nil {
			return nil, fmt.Errorf("app: supabase store: %w", err)
		}
		return st, nil
	case coreconfig.StorePostgres:
		db, err := database.Connect(cfg.Store.Postgres)
		if err != nil {
			return nil, fmt.Errorf("app: postgres store: %w", err)
		}
		if err := database.RunMigrations(cfg.Store.Postgres); err != nil {
			return nil, fmt.Errorf("app: migrations: %w", err)
		}
		return store.NewPostgresStore(db, cfg.Store.Table), nil
	case coreconfig.StoreMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.Store.Backend)
	}
}

// TelegramRunOptions wires commands, callbacks and routes for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Открыть меню записи",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Отменить текущую запись",
	})
	reg.RegisterCommand("/export", commands.Command{
		Handler:     a.handleExport,
		Description: "Выгрузка заявок в CSV",
		AdminOnly:   true,
		Hidden:      true,
	})

	for key, handler := range map[string]tele.HandlerFunc{
		cbMainMenu:      a.cbShowMainMenu,
		cbSeePrices:     a.cbShowPrices,
		cbChoosePlan:    a.cbChoosePlanMenu,
		cbGroup:         a.cbShowGroup,
		cbPlan:          a.cbSelectPlan,
		callbackConfirm: a.cbConfirmPayment,
	} {
		if err := reg.RegisterCallback(key, handler); err != nil {
			return coretelegram.RunOptions{}, fmt.Errorf("app: register callback %s: %w", key, err)
		}
	}
	reg.SetTextFallback(a.unknownText)

	var routes []coretelegram.Route
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.adminChatID,
	})...)
	routes = append(routes, router.TextRoutes(a, reg, router.TextOptions{
		UnknownText:  a.unknownText,
		UnknownPhoto: a.unknownPhoto,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, a.onRateLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.notifier.SetBot(rt.Bot)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.sessions.Stop()
			return nil
		},
	}, nil
}
