// Package store persists photosession registrations.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a registration lookup matches nothing.
var ErrNotFound = errors.New("store: registration not found")

// Registration is one persisted booking request. PlanName is a snapshot
// of the plan's display name at booking time, so later catalog edits do
// not rewrite history.
type Registration struct {
	ID               string    `json:"id,omitempty" db:"id"`
	FullName         string    `json:"full_name" db:"full_name"`
	PhoneNumber      string    `json:"phone_number" db:"phone_number"`
	TelegramUsername *string   `json:"telegram_username,omitempty" db:"telegram_username"`
	TelegramID       string    `json:"telegram_id" db:"telegram_id"`
	PlanID           string    `json:"plan_id" db:"plan_id"`
	PlanName         string    `json:"plan_name" db:"plan_name"`
	IsPaid           bool      `json:"is_paid" db:"is_paid"`
	CreatedAt        time.Time `json:"created_at,omitempty" db:"created_at"`
}

// Store is the persistence boundary for registrations.
type Store interface {
	// CreateRegistration persists a new registration. The backend may not
	// return the generated id; callers recover it via LatestByTelegramID.
	CreateRegistration(ctx context.Context, reg *Registration) error
	// LatestByTelegramID returns the most recently created registration
	// for the given Telegram user.
	LatestByTelegramID(ctx context.Context, telegramID string) (*Registration, error)
	// ByID returns the registration with the given id.
	ByID(ctx context.Context, id string) (*Registration, error)
	// MarkPaid flips is_paid to true for the given id. It returns
	// ErrNotFound when no row matches; already-paid rows are updated
	// again without error, so the operation is idempotent.
	MarkPaid(ctx context.Context, id string) error
	// ListAll returns every registration, newest first.
	ListAll(ctx context.Context) ([]Registration, error)
}
