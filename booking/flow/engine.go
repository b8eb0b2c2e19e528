// Package flow drives the booking dialogue from plan selection to the
// admin's payment confirmation.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wowmotion/bookingbot/booking/catalog"
	"github.com/wowmotion/bookingbot/booking/session"
	"github.com/wowmotion/bookingbot/booking/store"
	"github.com/wowmotion/bookingbot/booking/validate"
	"github.com/wowmotion/bookingbot/core/logger"
	"github.com/wowmotion/bookingbot/core/telegram/format"
	"log/slog"
)

var (
	// ErrPlanNotFound is returned when a selected plan id is not in the catalog.
	ErrPlanNotFound = errors.New("flow: plan not found")
	// ErrInvalidPhone is returned when phone validation rejects the input.
	// The session stays at the phone step so the user can try again.
	ErrInvalidPhone = errors.New("flow: invalid phone number")
	// ErrWrongStep is returned when input arrives for a step the user is not at.
	ErrWrongStep = errors.New("flow: unexpected step")
)

// AdminNotice is what the admin chat receives after a receipt arrives.
type AdminNotice struct {
	PhotoFileID    string
	Summary        string
	RegistrationID string
}

// Notifier delivers messages outside the current update's chat.
type Notifier interface {
	NotifyAdmin(ctx context.Context, notice AdminNotice) error
	NotifyUser(ctx context.Context, telegramID, text string) error
}

// PhoneResult reports a successful phone submission.
type PhoneResult struct {
	Plan           catalog.Plan
	RegistrationID string
}

// ConfirmResult reports a payment confirmation.
type ConfirmResult struct {
	Registration *store.Registration
	UserNotified bool
}

// Engine ties the catalog, session manager, store and notifier together.
type Engine struct {
	catalog  *catalog.Catalog
	sessions *session.Manager
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

// NewEngine wires the booking flow dependencies.
func NewEngine(cat *catalog.Catalog, sessions *session.Manager, st store.Store, notifier Notifier) *Engine {
	return &Engine{
		catalog:  cat,
		sessions: sessions,
		store:    st,
		notifier: notifier,
		now:      time.Now,
	}
}

// StartRegistration opens a session for the user at the name step.
// Selecting a plan mid-dialogue restarts the collection from scratch.
func (e *Engine) StartRegistration(ctx context.Context, userID int64, planID string) (catalog.Plan, error) {
	plan, ok := e.catalog.PlanByID(planID)
	if !ok {
		return catalog.Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}

	e.sessions.Begin(userID, session.StepCollectingName, plan.ID)
	logger.Info(ctx, "flow", "registration.started",
		slog.Int64("user_id", userID),
		slog.String("plan_id", plan.ID),
	)
	return plan, nil
}

// SubmitName records the user's name and advances to the phone step.
// Names are captured as-is; only fully empty input is rejected.
func (e *Engine) SubmitName(ctx context.Context, userID int64, name string) error {
	if e.sessions.Step(userID) != session.StepCollectingName {
		return ErrWrongStep
	}
	return e.sessions.Update(userID, func(s *session.Session) {
		s.FullName = name
		s.Step = session.StepCollectingPhone
	})
}

// SubmitPhone validates and normalizes the phone, persists the
// registration and advances to the receipt step. On validation failure
// the session is left exactly where it was.
func (e *Engine) SubmitPhone(ctx context.Context, userID int64, username, rawPhone string) (PhoneResult, error) {
	if e.sessions.Step(userID) != session.StepCollectingPhone {
		return PhoneResult{}, ErrWrongStep
	}
	if !validate.PhoneNumber(rawPhone) {
		return PhoneResult{}, ErrInvalidPhone
	}

	sess, ok := e.sessions.Snapshot(userID)
	if !ok {
		return PhoneResult{}, session.ErrNoSession
	}
	plan, ok := e.catalog.PlanByID(sess.PlanID)
	if !ok {
		return PhoneResult{}, fmt.Errorf("%w: %s", ErrPlanNotFound, sess.PlanID)
	}

	phone := validate.FormatPhoneNumber(rawPhone)
	telegramID := strconv.FormatInt(userID, 10)

	var handle *string
	if username != "" {
		handle = format.StringPtr("@" + username)
	}
	reg := &store.Registration{
		FullName:         sess.FullName,
		PhoneNumber:      phone,
		TelegramUsername: handle,
		TelegramID:       telegramID,
		PlanID:           plan.ID,
		PlanName:         plan.Name,
		IsPaid:           false,
	}
	if err := e.store.CreateRegistration(ctx, reg); err != nil {
		// The user restarts from plan selection rather than resubmitting
		// the phone against a store that just failed.
		e.sessions.End(userID)
		return PhoneResult{}, err
	}

	// The create ack carries no id, so read the row back. A failed
	// read-back is not fatal: the admin notice will flag the missing id
	// and the confirm button is simply omitted.
	regID := ""
	if stored, err := e.store.LatestByTelegramID(ctx, telegramID); err != nil {
		logger.Warn(ctx, "flow", "registration.id_recover.fail",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	} else {
		regID = stored.ID
	}

	if err := e.sessions.Update(userID, func(s *session.Session) {
		s.Username = username
		s.Phone = phone
		s.RegistrationID = regID
		s.Step = session.StepAwaitingReceipt
	}); err != nil {
		return PhoneResult{}, err
	}

	logger.Info(ctx, "flow", "registration.persisted",
		slog.Int64("user_id", userID),
		slog.String("registration_id", regID),
		slog.String("plan_id", plan.ID),
	)
	return PhoneResult{Plan: plan, RegistrationID: regID}, nil
}

// SubmitReceipt forwards the payment receipt to the admin chat and moves
// the session to awaiting confirmation. A failed admin notification is
// logged but never surfaced to the user, whose receipt is already taken.
func (e *Engine) SubmitReceipt(ctx context.Context, userID int64, photoFileID string) (AdminNotice, error) {
	if e.sessions.Step(userID) != session.StepAwaitingReceipt {
		return AdminNotice{}, ErrWrongStep
	}
	sess, ok := e.sessions.Snapshot(userID)
	if !ok {
		return AdminNotice{}, session.ErrNoSession
	}
	plan, ok := e.catalog.PlanByID(sess.PlanID)
	if !ok {
		return AdminNotice{}, fmt.Errorf("%w: %s", ErrPlanNotFound, sess.PlanID)
	}

	notice := AdminNotice{
		PhotoFileID: photoFileID,
		Summary: AdminSummary(SummaryData{
			FullName:       sess.FullName,
			Phone:          sess.Phone,
			Username:       sess.Username,
			PlanName:       plan.Name,
			Price:          plan.Price,
			RegistrationID: sess.RegistrationID,
		}, e.now()),
		RegistrationID: sess.RegistrationID,
	}
	if err := e.notifier.NotifyAdmin(ctx, notice); err != nil {
		logger.Warn(ctx, "flow", "receipt.admin_notify.fail",
			slog.Int64("user_id", userID),
			slog.String("registration_id", sess.RegistrationID),
			slog.String("err", err.Error()),
		)
	}

	if err := e.sessions.Update(userID, func(s *session.Session) {
		s.Step = session.StepAwaitingConfirmation
	}); err != nil {
		return AdminNotice{}, err
	}

	logger.Info(ctx, "flow", "receipt.forwarded",
		slog.Int64("user_id", userID),
		slog.String("registration_id", sess.RegistrationID),
	)
	return notice, nil
}

// ConfirmPayment marks the registration paid and notifies its user.
// Unknown ids fail with store.ErrNotFound and change nothing. A failed
// user notification does not roll back the payment mark.
func (e *Engine) ConfirmPayment(ctx context.Context, registrationID string) (ConfirmResult, error) {
	if err := e.store.MarkPaid(ctx, registrationID); err != nil {
		return ConfirmResult{}, err
	}

	reg, err := e.store.ByID(ctx, registrationID)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("load confirmed registration: %w", err)
	}

	result := ConfirmResult{Registration: reg}
	if err := e.notifier.NotifyUser(ctx, reg.TelegramID, PaymentConfirmedText(reg)); err != nil {
		logger.Warn(ctx, "flow", "confirm.user_notify.fail",
			slog.String("registration_id", registrationID),
			slog.String("err", err.Error()),
		)
	} else {
		result.UserNotified = true
	}

	if userID, err := strconv.ParseInt(reg.TelegramID, 10, 64); err == nil {
		e.sessions.End(userID)
	}

	logger.Info(ctx, "flow", "payment.confirmed",
		slog.String("registration_id", registrationID),
		slog.Bool("user_notified", result.UserNotified),
	)
	return result, nil
}

// Cancel drops the user's session, if any.
func (e *Engine) Cancel(userID int64) {
	e.sessions.End(userID)
}
