package router

import (
	"time"

	tg "github.com/wowmotion/bookingbot/core/telegram"
	"github.com/wowmotion/bookingbot/core/telegram/callbacks"
	"github.com/wowmotion/bookingbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions supplies the fallback for unregistered callbacks when
// the registry has none of its own.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute routes callbacks through the registry by their parsed
// key. Registered handlers answer the callback themselves, which lets
// them attach their own ack text or alert.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		if cbHandler, ok := reg.GetCallback(key); ok && cbHandler != nil {
			return handleWithSummary(c, name, start, "", "", func() error {
				return cbHandler(c)
			}, extras...)
		}

		fallback := reg.CallbackNotFound()
		if fallback == nil {
			fallback = opts.NotFound
		}
		extras = append(extras, slog.String("reason", "not_found"))
		return handleWithSummary(c, name, start, "", "", func() error {
			// Stop the spinner even when no one claims the callback.
			_ = c.Respond()
			if fallback != nil {
				return fallback(c)
			}
			return nil
		}, extras...)
	}

	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
