package flow

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"

	"ishtopar/core/logger"
	tghelpers "ishtopar/core/telegram/helpers"
	"ishtopar/internal/session"

	tele "gopkg.in/telebot.v4"
)

// stepHandler consumes one message for one step. It returns the next
// session record to persist, or nil to end the conversation. The
// dispatcher is the only writer: a handler never touches the store
// itself.
type stepHandler func(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error)

// HandleMessage is the single text entry point wired into the message
// router. It reports whether the update was consumed by an active
// conversation; false lets the router fall through to commands and the
// fallback reply.
func (f *Flows) HandleMessage(c tele.Context) (bool, error) {
	user := c.Sender()
	if user == nil {
		return false, nil
	}

	lock := f.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)

	rec, ok, err := f.store.Get(ctx, user.ID)
	if err != nil {
		logger.Error(ctx, "flow", "session.get_failed",
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
		return false, nil
	}
	if !ok || rec.Step == "" {
		return false, nil
	}

	// Cancellation wins over everything, including steps whose
	// handler would otherwise reject the input. The language sub-flow
	// routes its own cancels before the generic resolver sees them.
	if f.isCancelText(c.Text()) {
		if languageSubflowOwnsCancel(rec) {
			f.run(ctx, c, user.ID, rec, f.closeLanguageSubflow)
		} else {
			f.resolveCancel(ctx, c, rec)
		}
		return true, nil
	}

	h := f.lookup(rec, user.ID)
	if h == nil {
		return false, nil
	}

	f.run(ctx, c, user.ID, rec, h)
	return true, nil
}

// isCancelText recognizes the cancel command and the cancel button in
// every interface language.
func (f *Flows) isCancelText(text string) bool {
	t := strings.TrimSpace(text)
	if strings.EqualFold(t, "/cancel") {
		return true
	}
	return f.texts.Matches(t, "btn.cancel")
}

// lookup picks the step handler by family precedence: admin steps
// first (admins only), then the shared captcha step, then the vacancy
// and profile families, then the flow-scoped map of everything else.
func (f *Flows) lookup(rec session.Record, userID int64) stepHandler {
	if session.IsAdminStep(rec.Step) {
		if !f.isAdmin(userID) {
			return nil
		}
		return f.adminHandler(rec.Step)
	}
	if rec.Step == session.StepCaptcha {
		return f.captchaStep
	}
	if session.IsVacancyStep(rec.Step) {
		return f.vacancyHandler(rec.Step)
	}
	if session.IsProfileStep(rec.Step) {
		return f.profileHandler(rec.Step)
	}
	return f.genericHandler(rec)
}

// genericHandler routes the remaining steps by flow, step, and role.
func (f *Flows) genericHandler(rec session.Record) stepHandler {
	switch rec.Flow {
	case session.FlowRegistration:
		return f.registrationHandler(rec)
	case session.FlowSettings:
		return f.settingsHandler(rec)
	case session.FlowRecovery:
		return f.recoveryHandler(rec.Step)
	case session.FlowSupport:
		if rec.Step == session.StepSupportMessage {
			return f.supportMessage
		}
	case session.FlowDelete:
		if rec.Step == session.StepDeleteConfirm {
			return f.deleteConfirm
		}
	}
	return nil
}

// run executes one handler with containment: a panic or error clears
// the session, apologizes, and leaves the user on a safe menu. The
// update still counts as handled so the router does not double-reply.
func (f *Flows) run(ctx context.Context, c tele.Context, userID int64, rec session.Record, h stepHandler) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "flow", "step.panic",
				slog.Int64("user_id", userID),
				slog.String("flow", string(rec.Flow)),
				slog.String("step", string(rec.Step)),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			f.recoverToSafety(ctx, c, userID, rec)
		}
	}()

	next, err := h(ctx, c, rec.Clone())
	if err != nil {
		logger.Error(ctx, "flow", "step.failed",
			slog.Int64("user_id", userID),
			slog.String("flow", string(rec.Flow)),
			slog.String("step", string(rec.Step)),
			slog.String("err", err.Error()),
		)
		f.recoverToSafety(ctx, c, userID, rec)
		return
	}

	if next == nil {
		if err := f.store.Clear(ctx, userID); err != nil {
			logger.Error(ctx, "flow", "session.clear_failed",
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
		return
	}
	if err := f.store.Set(ctx, userID, *next); err != nil {
		logger.Error(ctx, "flow", "session.set_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

// recoverToSafety drops the broken conversation and parks the user on
// the menu matching their persisted role.
func (f *Flows) recoverToSafety(ctx context.Context, c tele.Context, userID int64, rec session.Record) {
	if err := f.store.Clear(ctx, userID); err != nil {
		logger.Error(ctx, "flow", "session.clear_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
	lang := f.lang(ctx, userID, rec)
	role, _ := f.dir.RoleOf(ctx, userID)
	f.send(c, f.texts.T(lang, "err.apology"), f.safeMenu(role, lang))
}

// safeMenu is the landing keyboard after a forced reset: the main menu
// for registered users, the role picker otherwise.
func (f *Flows) safeMenu(role, lang string) *tele.ReplyMarkup {
	if role == "" {
		return f.menus.RoleSelect(lang)
	}
	return f.menus.Main(role, lang)
}

// send delivers a reply through the async sender. Delivery failures do
// not influence flow decisions; they are logged by the sender itself.
func (f *Flows) send(c tele.Context, text string, markup *tele.ReplyMarkup) {
	opts := &tele.SendOptions{}
	if markup != nil {
		opts.ReplyMarkup = markup
	}
	_ = tghelpers.SendText(c, text, opts)
}

// expired guards direct handler entry: a record on a different step
// than the handler serves means the stored session is stale.
func (f *Flows) expired(ctx context.Context, c tele.Context, rec session.Record, want session.Step) bool {
	if rec.Step == want {
		return false
	}
	lang := f.lang(ctx, c.Sender().ID, rec)
	role, _ := f.dir.RoleOf(ctx, c.Sender().ID)
	f.send(c, f.texts.T(lang, "err.session_expired"), f.safeMenu(role, lang))
	return true
}
