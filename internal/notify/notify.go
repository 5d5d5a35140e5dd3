// Package notify delivers out-of-band messages: support requests to
// the staff chat and password-recovery codes to account owners.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	"ishtopar/internal/i18n"
)

// Messenger is the slice of *tele.Bot the notifier needs.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram routes notifications through the bot itself.
type Telegram struct {
	mu            sync.RWMutex
	bot           Messenger
	texts         *i18n.Bundle
	supportChatID int64
}

// New wires the notifier. supportChatID may be zero; support requests
// are then only logged. The bot is attached with Bind once built.
func New(texts *i18n.Bundle, supportChatID int64) *Telegram {
	return &Telegram{texts: texts, supportChatID: supportChatID}
}

// Bind attaches the bot.
func (t *Telegram) Bind(bot Messenger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bot = bot
}

func (t *Telegram) messenger() (Messenger, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.bot == nil {
		return nil, errors.New("notify: no bot bound")
	}
	return t.bot, nil
}

// Forward relays a support request to the staff chat.
func (t *Telegram) Forward(ctx context.Context, fromID int64, username, text string) error {
	logger.Info(ctx, "notify", "support.received",
		slog.Int64("user_id", fromID),
		slog.String("username", username),
	)
	if t.supportChatID == 0 {
		return nil
	}
	bot, err := t.messenger()
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("🆘 @%s (%d):\n%s", username, fromID, text)
	_, err = bot.Send(tele.ChatID(t.supportChatID), msg)
	return err
}

// Deliver sends a recovery code to the Telegram account linked to the
// employer record, in the bundle's default language.
func (t *Telegram) Deliver(ctx context.Context, telegramID int64, code string) error {
	bot, err := t.messenger()
	if err != nil {
		return err
	}
	logger.Info(ctx, "notify", "recovery.code_delivery",
		slog.Int64("user_id", telegramID),
	)
	text := t.texts.Tf(t.texts.DefaultLang(), "msg.recovery_code", code)
	_, err = bot.Send(tele.ChatID(telegramID), text)
	return err
}
