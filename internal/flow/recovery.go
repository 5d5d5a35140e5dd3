package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/crypto/bcrypt"
	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	tghelpers "ishtopar/core/telegram/helpers"
	"ishtopar/internal/session"
	"ishtopar/internal/storage"
	"ishtopar/internal/validate"
)

// StartRecovery opens employer password recovery. The confirmation
// code goes to the Telegram account the employer record is linked to,
// which proves ownership when the requester is someone else.
func (f *Flows) StartRecovery(c tele.Context) error {
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
		Step: session.StepRecoveryPhone,
		Flow: session.FlowRecovery,
		Lang: lang,
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}
	f.send(c, f.texts.T(lang, "prompt.recovery_phone"), f.menus.Cancel(lang))
	return nil
}

func (f *Flows) recoveryHandler(step session.Step) stepHandler {
	switch step {
	case session.StepRecoveryPhone:
		return f.recPhone
	case session.StepRecoveryCode:
		return f.recCode
	case session.StepRecoveryPassword:
		return f.recPassword
	}
	return nil
}

func (f *Flows) recPhone(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepRecoveryPhone) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	phone, ok := validate.NormalizePhone(c.Text())
	if !ok {
		f.send(c, f.texts.T(lang, "err.phone_format"), f.menus.Cancel(lang))
		return &rec, nil
	}

	employer, err := f.employers.ByPhone(ctx, phone)
	if errors.Is(err, storage.ErrNotFound) {
		f.send(c, f.texts.T(lang, "err.recovery_unknown_phone"), f.menus.Cancel(lang))
		return &rec, nil
	}
	if err != nil {
		return nil, err
	}

	code := fmt.Sprintf("%06d", rand.IntN(1000000))
	if err := f.recovery.Deliver(ctx, employer.TelegramID, code); err != nil {
		return nil, err
	}

	logger.Info(ctx, "flow", "recovery.code_sent",
		slog.Int64("user_id", c.Sender().ID),
		slog.Int64("account_tg_id", employer.TelegramID),
	)
	rec.Recovery = &session.RecoveryData{Phone: phone, Code: code}
	rec.Step = session.StepRecoveryCode
	f.send(c, f.texts.T(lang, "prompt.recovery_code"), f.menus.Cancel(lang))
	return &rec, nil
}

func (f *Flows) recCode(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepRecoveryCode) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)
	if rec.Recovery == nil {
		f.send(c, f.texts.T(lang, "err.session_expired"), f.menus.Cancel(lang))
		return nil, nil
	}

	if trimText(c.Text()) != rec.Recovery.Code {
		f.send(c, f.texts.T(lang, "err.recovery_code_mismatch"), f.menus.Cancel(lang))
		return &rec, nil
	}

	rec.Step = session.StepRecoveryPassword
	f.send(c, f.texts.T(lang, "prompt.recovery_password"), f.menus.Cancel(lang))
	return &rec, nil
}

func (f *Flows) recPassword(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepRecoveryPassword) {
		return nil, nil
	}
	user := c.Sender()
	lang := f.lang(ctx, user.ID, rec)
	if rec.Recovery == nil {
		f.send(c, f.texts.T(lang, "err.session_expired"), f.menus.Cancel(lang))
		return nil, nil
	}

	if !validate.Password(c.Text()) {
		f.send(c, f.texts.T(lang, "err.password_weak"), f.menus.Cancel(lang))
		return &rec, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Text()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if err := f.employers.SetPasswordHash(ctx, rec.Recovery.Phone, string(hash)); err != nil {
		return nil, err
	}

	logger.Info(ctx, "flow", "recovery.completed",
		slog.Int64("user_id", user.ID),
	)
	role, _ := f.dir.RoleOf(ctx, user.ID)
	f.send(c, f.texts.T(lang, "msg.recovery_done"), f.safeMenu(role, lang))
	return nil, nil
}
