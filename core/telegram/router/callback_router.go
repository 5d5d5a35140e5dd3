package router

import (
	"log/slog"
	"time"

	tg "ishtopar/core/telegram"
	"ishtopar/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions carries the last-resort handler for callback keys the
// registry does not know about.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns the single tele.OnCallback route. It answers the
// callback immediately to stop the client spinner, then dispatches on the
// parsed key. Unknown keys fall back to the registry's not-found handler,
// then to opts.NotFound.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		start := time.Now()

		key, _ := parseCallback(cb)
		_ = c.Respond()

		target, ok := reg.GetCallback(key)
		extras := []slog.Attr{slog.String("cb_key", key)}
		if !ok || target == nil {
			target = reg.CallbackNotFound()
			if target == nil {
				target = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
		}

		name := "callback." + normalizeHandlerName(key)
		return handleWithSummary(c, name, start, "", "", func() error {
			if target == nil {
				return nil
			}
			return target(c)
		}, extras...)
	}

	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
