package flow

import (
	"context"
	"log/slog"

	"ishtopar/core/logger"
	tghelpers "ishtopar/core/telegram/helpers"
	"ishtopar/internal/session"

	tele "gopkg.in/telebot.v4"
)

// CancelCurrentFlow aborts whatever conversation the user is in. Safe
// to call with no active conversation; it then just re-shows the menu.
func (f *Flows) CancelCurrentFlow(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}

	lock := f.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	rec, ok, err := f.store.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	if !ok || rec.Step == "" {
		lang := f.lang(ctx, user.ID, session.Record{})
		role, _ := f.dir.RoleOf(ctx, user.ID)
		f.send(c, f.menuCaption(role, lang), f.safeMenu(role, lang))
		return nil
	}
	if languageSubflowOwnsCancel(rec) {
		f.run(ctx, c, user.ID, rec, f.closeLanguageSubflow)
		return nil
	}
	f.resolveCancel(ctx, c, rec)
	return nil
}

// resolveCancel clears the session and routes the user to the menu the
// aborted conversation came from. The destination depends on the flow
// (and for admin tools, on the step), never on how far the
// conversation had progressed.
func (f *Flows) resolveCancel(ctx context.Context, c tele.Context, rec session.Record) {
	user := c.Sender()
	if err := f.store.Clear(ctx, user.ID); err != nil {
		logger.Error(ctx, "flow", "session.clear_failed",
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
	}

	lang := f.lang(ctx, user.ID, rec)
	// The persisted role, not the one the aborted flow was building:
	// a seeker who cancels mid-registration is still unregistered.
	role, _ := f.dir.RoleOf(ctx, user.ID)

	logger.Info(ctx, "flow", "flow.cancelled",
		slog.Int64("user_id", user.ID),
		slog.String("flow", string(rec.Flow)),
		slog.String("step", string(rec.Step)),
	)

	text := f.texts.T(lang, "msg.cancelled")
	switch rec.Flow {
	case session.FlowSettings:
		f.send(c, text, f.menus.Settings(lang))
	case session.FlowVacancy:
		f.send(c, text, f.menus.EmployerMain(lang))
	case session.FlowBroadcast:
		f.send(c, text, f.menus.Admin(lang))
	case session.FlowRegistration:
		if role == "" {
			f.send(c, text, f.menus.RoleSelect(lang))
			return
		}
		f.send(c, text, f.menus.Main(role, lang))
	default:
		if session.IsAdminStep(rec.Step) {
			if rec.Step == session.StepAdminUserSearch {
				f.send(c, text, f.menus.AdminUsers(lang))
				return
			}
			f.send(c, text, f.menus.Admin(lang))
			return
		}
		f.send(c, text, f.safeMenu(role, lang))
	}
}

// menuCaption picks the caption matching safeMenu's keyboard.
func (f *Flows) menuCaption(role, lang string) string {
	switch role {
	case "seeker":
		return f.texts.T(lang, "menu.main_seeker")
	case "employer":
		return f.texts.T(lang, "menu.main_employer")
	default:
		return f.texts.T(lang, "menu.role_select")
	}
}
