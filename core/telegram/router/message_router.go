package router

import (
	"time"

	tg "ishtopar/core/telegram"
	"ishtopar/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Flow defines the minimal interface for a conversation-flow dispatcher.
// HandleMessage reports whether the update was consumed by an active flow;
// when it returns false the router falls through to commands and fallbacks.
type Flow interface {
	HandleMessage(c tele.Context) (bool, error)
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing.
// Active flows get first claim on every text update; unclaimed text is
// matched against registered commands, then the registry fallback.
func TextRoutes(flow Flow, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if flow != nil {
			var handled bool
			err := handleWithSummary(c, "flow", start, "", "", func() error {
				var ferr error
				handled, ferr = flow.HandleMessage(c)
				return ferr
			})
			if handled || err != nil {
				return err
			}
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if flow != nil {
			var handled bool
			err := handleWithSummary(c, "flow_document", start, "", "", func() error {
				var ferr error
				handled, ferr = flow.HandleMessage(c)
				return ferr
			})
			if handled || err != nil {
				return err
			}
		}
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
