package app

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/wowmotion/bookingbot/booking/flow"
	"github.com/wowmotion/bookingbot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// callbackConfirm tags the admin's payment confirmation button.
const callbackConfirm = "confirm_payment"

// telegramNotifier delivers flow notifications through the bot API.
// The bot instance appears only after the runtime starts, hence the
// atomic pointer set from the OnStart hook.
type telegramNotifier struct {
	bot         atomic.Pointer[tele.Bot]
	adminChatID int64
}

func newTelegramNotifier(adminChatID int64) *telegramNotifier {
	return &telegramNotifier{adminChatID: adminChatID}
}

func (n *telegramNotifier) SetBot(bot *tele.Bot) {
	n.bot.Store(bot)
}

func (n *telegramNotifier) NotifyAdmin(ctx context.Context, notice flow.AdminNotice) error {
	bot := n.bot.Load()
	if bot == nil {
		return fmt.Errorf("notifier: bot not started")
	}
	if n.adminChatID == 0 {
		logger.Warn(ctx, "notify", "admin.skip",
			slog.String("registration_id", notice.RegistrationID),
			slog.String("reason", "admin_chat_id not configured"),
		)
		return nil
	}

	photo := &tele.Photo{
		File:    tele.File{FileID: notice.PhotoFileID},
		Caption: notice.Summary,
	}
	opts := []interface{}{}
	// Without a registration id there is nothing to confirm against, so
	// the notice goes out button-less for manual handling.
	if notice.RegistrationID != "" {
		markup := &tele.ReplyMarkup{}
		btn := markup.Data("✅ Подтвердить оплату", callbackConfirm, notice.RegistrationID)
		markup.InlineKeyboard = [][]tele.InlineButton{{*btn.Inline()}}
		opts = append(opts, markup)
	}
	if _, err := bot.Send(tele.ChatID(n.adminChatID), photo, opts...); err != nil {
		return fmt.Errorf("notifier: send admin notice: %w", err)
	}
	return nil
}

func (n *telegramNotifier) NotifyUser(ctx context.Context, telegramID, text string) error {
	bot := n.bot.Load()
	if bot == nil {
		return fmt.Errorf("notifier: bot not started")
	}
	chatID, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		return fmt.Errorf("notifier: bad telegram id %q: %w", telegramID, err)
	}
	if _, err := bot.Send(tele.ChatID(chatID), text); err != nil {
		return fmt.Errorf("notifier: send user notice: %w", err)
	}
	return nil
}
