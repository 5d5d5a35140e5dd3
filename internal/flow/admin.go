package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	tghelpers "ishtopar/core/telegram/helpers"
	"ishtopar/internal/session"
	"ishtopar/internal/validate"
)

// StartBroadcast opens broadcast composition. Callers gate on the
// admin menu already; the id check here covers direct invocation.
func (f *Flows) StartBroadcast(c tele.Context) error {
	user := c.Sender()
	if user == nil || !f.isAdmin(user.ID) {
		return nil
	}

	lock := f.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	lang := f.lang(ctx, user.ID, session.Record{})
	rec := session.Record{
		Step: session.StepAdminBroadcastText,
		Flow: session.FlowBroadcast,
		Lang: lang,
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}
	f.send(c, f.texts.T(lang, "prompt.broadcast_text"), f.menus.Cancel(lang))
	return nil
}

// StartUserSearch opens the one-shot admin user lookup.
func (f *Flows) StartUserSearch(c tele.Context) error {
	user := c.Sender()
	if user == nil || !f.isAdmin(user.ID) {
		return nil
	}

	lock := f.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	lang := f.lang(ctx, user.ID, session.Record{})
	rec := session.Record{
		Step: session.StepAdminUserSearch,
		Flow: session.FlowAdmin,
		Lang: lang,
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}
	f.send(c, f.texts.T(lang, "prompt.admin_user_search"), f.menus.Cancel(lang))
	return nil
}

func (f *Flows) adminHandler(step session.Step) stepHandler {
	switch step {
	case session.StepAdminBroadcastText:
		return f.admBroadcastText
	case session.StepAdminBroadcastConfirm:
		return f.admBroadcastConfirm
	case session.StepAdminUserSearch:
		return f.admUserSearch
	}
	return nil
}

func (f *Flows) admBroadcastText(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepAdminBroadcastText) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	text := trimText(c.Text())
	if !validate.MinLen(text, 5) {
		f.send(c, f.texts.Tf(lang, "err.too_short", 5), f.menus.Cancel(lang))
		return &rec, nil
	}

	count, err := f.broadcast.RecipientCount(ctx)
	if err != nil {
		return nil, err
	}

	rec.Broadcast = &session.BroadcastData{Text: text}
	rec.Step = session.StepAdminBroadcastConfirm
	f.send(c, f.texts.Tf(lang, "prompt.broadcast_confirm", count, text), f.menus.YesNo(lang))
	return &rec, nil
}

func (f *Flows) admBroadcastConfirm(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepAdminBroadcastConfirm) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)
	if rec.Broadcast == nil {
		f.send(c, f.texts.T(lang, "err.session_expired"), f.menus.Admin(lang))
		return nil, nil
	}

	switch {
	case f.texts.Matches(c.Text(), "btn.yes"):
		id, queued, err := f.broadcast.Broadcast(ctx, rec.Broadcast.Text)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "flow", "broadcast.confirmed",
			slog.Int64("user_id", c.Sender().ID),
			slog.String("broadcast_id", id),
			slog.Int("recipients", queued),
		)
		f.send(c, f.texts.Tf(lang, "msg.broadcast_started", queued), f.menus.Admin(lang))
		return nil, nil

	case f.texts.Matches(c.Text(), "btn.no"):
		f.send(c, f.texts.T(lang, "msg.broadcast_aborted"), f.menus.Admin(lang))
		return nil, nil
	}

	f.send(c, f.texts.T(lang, "err.confirm_pick"), f.menus.YesNo(lang))
	return &rec, nil
}

// admUserSearch answers one query and ends the conversation.
func (f *Flows) admUserSearch(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepAdminUserSearch) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	query := trimText(c.Text())
	if !validate.MinLen(query, 2) {
		f.send(c, f.texts.Tf(lang, "err.too_short", 2), f.menus.Cancel(lang))
		return &rec, nil
	}

	hits, err := f.dir.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		f.send(c, f.texts.T(lang, "msg.admin_user_not_found"), f.menus.AdminUsers(lang))
		return nil, nil
	}

	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "%s · %s · %s · %s · tg:%d\n", h.Kind, h.Name, h.Phone, h.Email, h.TelegramID)
	}
	f.send(c, b.String(), f.menus.AdminUsers(lang))
	return nil, nil
}
