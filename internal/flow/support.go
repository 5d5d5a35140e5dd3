package flow

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	tghelpers "ishtopar/core/telegram/helpers"
	"ishtopar/internal/session"
	"ishtopar/internal/validate"
)

// StartSupport opens the support request conversation.
func (f *Flows) StartSupport(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}

	lock := f.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	lang := f.lang(ctx, user.ID, session.Record{})
	rec := session.Record{
		Step: session.StepSupportMessage,
		Flow: session.FlowSupport,
		Lang: lang,
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}
	f.send(c, f.texts.T(lang, "prompt.support_message"), f.menus.Cancel(lang))
	return nil
}

// supportMessage forwards the request to the support sink and ends the
// conversation.
func (f *Flows) supportMessage(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepSupportMessage) {
		return nil, nil
	}
	user := c.Sender()
	lang := f.lang(ctx, user.ID, rec)

	text := trimText(c.Text())
	if !validate.MinLen(text, 5) {
		f.send(c, f.texts.Tf(lang, "err.too_short", 5), f.menus.Cancel(lang))
		return &rec, nil
	}

	if err := f.support.Forward(ctx, user.ID, user.Username, text); err != nil {
		return nil, err
	}

	logger.Info(ctx, "flow", "support.forwarded",
		slog.Int64("user_id", user.ID),
	)
	role, _ := f.dir.RoleOf(ctx, user.ID)
	f.send(c, f.texts.T(lang, "msg.support_sent"), f.safeMenu(role, lang))
	return nil, nil
}
