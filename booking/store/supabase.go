package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wowmotion/bookingbot/core/logger"
	"log/slog"

	"github.com/supabase-community/supabase-go"
)

// supabaseTimeout bounds a single REST call when the caller's context
// carries no deadline of its own.
const supabaseTimeout = 10 * time.Second

// SupabaseStore persists registrations through the Supabase REST API.
type SupabaseStore struct {
	client *supabase.Client
	table  string
}

// NewSupabaseStore builds a store backed by the given Supabase project.
func NewSupabaseStore(url, key, table string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return &SupabaseStore{client: client, table: table}, nil
}

func requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, supabaseTimeout)
}

func (s *SupabaseStore) CreateRegistration(ctx context.Context, reg *Registration) error {
	// Insert with minimal returning: the create ack carries no id, the
	// caller reads the row back by telegram id.
	payload := map[string]interface{}{
		"full_name":    reg.FullName,
		"phone_number": reg.PhoneNumber,
		"telegram_id":  reg.TelegramID,
		"plan_id":      reg.PlanID,
		"plan_name":    reg.PlanName,
		"is_paid":      reg.IsPaid,
	}
	if reg.TelegramUsername != nil {
		payload["telegram_username"] = *reg.TelegramUsername
	}

	ctx, cancel := requestCtx(ctx)
	defer cancel()

	_, _, err := s.client.From(s.table).Insert(payload, false, "", "minimal", "").ExecuteWithContext(ctx)
	if err != nil {
		logger.Error(ctx, "store", "registration.create.fail",
			slog.String("telegram_id", reg.TelegramID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("create registration: %w", err)
	}
	logger.Info(ctx, "store", "registration.created",
		slog.String("telegram_id", reg.TelegramID),
		slog.String("plan_id", reg.PlanID),
	)
	return nil
}

func (s *SupabaseStore) LatestByTelegramID(ctx context.Context, telegramID string) (*Registration, error) {
	ctx, cancel := requestCtx(ctx)
	defer cancel()

	data, _, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("telegram_id", telegramID).
		Order("created_at.desc", nil).
		Limit(1, "").
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest registration: %w", err)
	}

	var regs []Registration
	if err := json.Unmarshal(data, &regs); err != nil {
		return nil, fmt.Errorf("parse registrations: %w", err)
	}
	if len(regs) == 0 {
		return nil, ErrNotFound
	}
	return &regs[0], nil
}

func (s *SupabaseStore) ByID(ctx context.Context, id string) (*Registration, error) {
	ctx, cancel := requestCtx(ctx)
	defer cancel()

	data, _, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("registration by id: %w", err)
	}

	var regs []Registration
	if err := json.Unmarshal(data, &regs); err != nil {
		return nil, fmt.Errorf("parse registration: %w", err)
	}
	if len(regs) == 0 {
		return nil, ErrNotFound
	}
	return &regs[0], nil
}

func (s *SupabaseStore) MarkPaid(ctx context.Context, id string) error {
	ctx, cancel := requestCtx(ctx)
	defer cancel()

	// Representation returning lets us detect a no-match update: PostgREST
	// reports success with an empty result set when nothing was touched.
	data, _, err := s.client.From(s.table).
		Update(map[string]interface{}{"is_paid": true}, "representation", "").
		Eq("id", id).
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}

	var updated []Registration
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("parse mark paid result: %w", err)
	}
	if len(updated) == 0 {
		return ErrNotFound
	}
	logger.Info(ctx, "store", "registration.paid", slog.String("id", id))
	return nil
}

func (s *SupabaseStore) ListAll(ctx context.Context) ([]Registration, error) {
	ctx, cancel := requestCtx(ctx)
	defer cancel()

	data, _, err := s.client.From(s.table).
		Select("*", "", false).
		Order("created_at.desc", nil).
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	var regs []Registration
	if err := json.Unmarshal(data, &regs); err != nil {
		return nil, fmt.Errorf("parse registrations: %w", err)
	}
	return regs, nil
}
