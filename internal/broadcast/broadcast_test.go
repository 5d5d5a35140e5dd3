package broadcast

import (
	"context"
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

type fakeMessenger struct {
	sent []tele.Recipient
	fail map[tele.ChatID]bool
}

func (m *fakeMessenger) Send(to tele.Recipient, _ interface{}, _ ...interface{}) (*tele.Message, error) {
	if m.fail[to.(tele.ChatID)] {
		return nil, errors.New("blocked by user")
	}
	m.sent = append(m.sent, to)
	return &tele.Message{}, nil
}

type staticAudience []int64

func (a staticAudience) TelegramIDs(context.Context) ([]int64, error) {
	return a, nil
}

func TestBroadcastDeduplicatesRecipients(t *testing.T) {
	bot := &fakeMessenger{}
	svc := NewService(staticAudience{1, 2, 3}, staticAudience{3, 4})
	svc.Bind(bot, nil)

	n, err := svc.RecipientCount(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 4 {
		t.Errorf("count = %d, want 4", n)
	}

	id, queued, err := svc.Broadcast(context.Background(), "salom")
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if id == "" {
		t.Error("empty run id")
	}
	if queued != 4 || len(bot.sent) != 4 {
		t.Errorf("queued = %d, sent = %d, want 4", queued, len(bot.sent))
	}
}

func TestBroadcastSurvivesFailedRecipient(t *testing.T) {
	bot := &fakeMessenger{fail: map[tele.ChatID]bool{2: true}}
	svc := NewService(staticAudience{1, 2, 3})
	svc.Bind(bot, nil)

	_, queued, err := svc.Broadcast(context.Background(), "salom")
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if queued != 2 {
		t.Errorf("queued = %d, want 2", queued)
	}
}
