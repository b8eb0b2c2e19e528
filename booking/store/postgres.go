package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wowmotion/bookingbot/core/logger"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists registrations in a Postgres table via sqlx.
type PostgresStore struct {
	db    *sqlx.DB
	table string
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: table}
}

func (s *PostgresStore) CreateRegistration(ctx context.Context, reg *Registration) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (full_name, phone_number, telegram_username, telegram_id, plan_id, plan_name, is_paid)
		VALUES (:full_name, :phone_number, :telegram_username, :telegram_id, :plan_id, :plan_name, :is_paid)`,
		s.table)
	if _, err := s.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	logger.Info(ctx, "store", "registration.created",
		slog.String("telegram_id", reg.TelegramID),
		slog.String("plan_id", reg.PlanID),
	)
	return nil
}

func (s *PostgresStore) LatestByTelegramID(ctx context.Context, telegramID string) (*Registration, error) {
	var reg Registration
	query := fmt.Sprintf(
		`SELECT * FROM %s WHERE telegram_id = $1 ORDER BY created_at DESC LIMIT 1`, s.table)
	if err := s.db.GetContext(ctx, &reg, query, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest registration: %w", err)
	}
	return &reg, nil
}

func (s *PostgresStore) ByID(ctx context.Context, id string) (*Registration, error) {
	var reg Registration
	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = $1`, s.table)
	if err := s.db.GetContext(ctx, &reg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("registration by id: %w", err)
	}
	return &reg, nil
}

func (s *PostgresStore) MarkPaid(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET is_paid = TRUE WHERE id = $1`, s.table)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark paid rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	logger.Info(ctx, "store", "registration.paid", slog.String("id", id))
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Registration, error) {
	var regs []Registration
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY created_at DESC`, s.table)
	if err := s.db.SelectContext(ctx, &regs, query); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}
