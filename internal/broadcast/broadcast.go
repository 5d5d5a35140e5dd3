// Package broadcast fans an admin-composed message out to every
// registered user through the asynchronous outbound sender.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	"ishtopar/core/telegram/sender"
)

// Messenger is the slice of *tele.Bot the service needs.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Audience lists the Telegram ids of one user collection.
type Audience interface {
	TelegramIDs(ctx context.Context) ([]int64, error)
}

// Service delivers broadcasts. Per-recipient sends go through the
// shared dispatcher so rate limiting and retries apply; a failed
// recipient never aborts the rest of the run.
type Service struct {
	mu        sync.RWMutex
	bot       Messenger
	disp      *sender.Dispatcher
	audiences []Audience
}

// NewService wires the broadcast fan-out over the given audiences. The
// bot is attached with Bind once the runtime has built it.
func NewService(audiences ...Audience) *Service {
	return &Service{audiences: audiences}
}

// Bind attaches the bot and the outbound dispatcher. A nil dispatcher
// sends synchronously.
func (s *Service) Bind(bot Messenger, disp *sender.Dispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bot = bot
	s.disp = disp
}

func (s *Service) messenger() (Messenger, *sender.Dispatcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bot == nil {
		return nil, nil, errors.New("broadcast: no bot bound")
	}
	return s.bot, s.disp, nil
}

func (s *Service) recipients(ctx context.Context) ([]int64, error) {
	seen := make(map[int64]struct{})
	var out []int64
	for _, a := range s.audiences {
		ids, err := a.TelegramIDs(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// RecipientCount reports how many users a broadcast would reach.
func (s *Service) RecipientCount(ctx context.Context) (int, error) {
	ids, err := s.recipients(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Broadcast queues text for every recipient and returns the run id
// and the number of queued sends.
func (s *Service) Broadcast(ctx context.Context, text string) (string, int, error) {
	bot, disp, err := s.messenger()
	if err != nil {
		return "", 0, err
	}
	ids, err := s.recipients(ctx)
	if err != nil {
		return "", 0, err
	}

	runID := uuid.NewString()
	queued := 0
	for _, id := range ids {
		to := tele.ChatID(id)
		run := func() error {
			_, sendErr := bot.Send(to, text)
			return sendErr
		}
		if disp == nil {
			if runErr := run(); runErr != nil {
				logger.Warn(ctx, "broadcast", "send.failed",
					slog.String("broadcast_id", runID),
					slog.Int64("user_id", id),
					slog.String("err", runErr.Error()),
				)
				continue
			}
			queued++
			continue
		}
		if enqErr := disp.Enqueue(ctx, "broadcast.send", "sendMessage", run); enqErr != nil {
			logger.Warn(ctx, "broadcast", "enqueue.failed",
				slog.String("broadcast_id", runID),
				slog.Int64("user_id", id),
				slog.String("err", enqErr.Error()),
			)
			continue
		}
		queued++
	}

	logger.Info(ctx, "broadcast", "run.queued",
		slog.String("broadcast_id", runID),
		slog.Int("recipients", len(ids)),
		slog.Int("delivered", queued),
	)
	return runID, queued, nil
}
