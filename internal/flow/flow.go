// Package flow implements the step-by-step conversation engine of the
// bot: a session-backed dispatcher that routes each incoming text
// message to the handler of the step the user is currently on, plus
// the step handlers for every conversation the bot supports
// (registration, profile, settings, vacancies, recovery, support,
// account deletion, admin tools).
package flow

import (
	"context"
	"strings"
	"sync"

	"ishtopar/internal/i18n"
	"ishtopar/internal/menu"
	"ishtopar/internal/session"
	"ishtopar/internal/storage"
)

// Directory answers cross-table uniqueness and identity questions
// during validation.
type Directory interface {
	PhoneInUse(ctx context.Context, phone string) (bool, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	DisplayNameInUse(ctx context.Context, name string) (bool, error)
	RoleOf(ctx context.Context, telegramID int64) (string, error)
	LangOf(ctx context.Context, telegramID int64) (string, error)
	Search(ctx context.Context, query string) ([]storage.UserSummary, error)
}

// SeekerStore is the seeker repository surface the flows need.
type SeekerStore interface {
	Create(ctx context.Context, s storage.Seeker) error
	ByTelegramID(ctx context.Context, telegramID int64) (storage.Seeker, error)
	UpdateField(ctx context.Context, telegramID int64, field, value string) error
	ReplaceLanguages(ctx context.Context, telegramID int64, langs []storage.SeekerLanguage) error
	Delete(ctx context.Context, telegramID int64) error
}

// EmployerStore is the employer repository surface the flows need.
type EmployerStore interface {
	Create(ctx context.Context, e storage.Employer) error
	ByTelegramID(ctx context.Context, telegramID int64) (storage.Employer, error)
	ByPhone(ctx context.Context, phone string) (storage.Employer, error)
	UpdateField(ctx context.Context, telegramID int64, field, value string) error
	SetPasswordHash(ctx context.Context, phone, hash string) error
	Delete(ctx context.Context, telegramID int64) error
}

// VacancyStore is the vacancy repository surface the flows need.
type VacancyStore interface {
	Create(ctx context.Context, v storage.Vacancy) (int64, error)
	Update(ctx context.Context, v storage.Vacancy) error
}

// Broadcaster fans a message out to every registered user.
type Broadcaster interface {
	RecipientCount(ctx context.Context) (int, error)
	Broadcast(ctx context.Context, text string) (string, int, error)
}

// SupportSink receives user support requests.
type SupportSink interface {
	Forward(ctx context.Context, fromID int64, username, text string) error
}

// CodeSender delivers a password-recovery code to the Telegram account
// an employer record is linked to.
type CodeSender interface {
	Deliver(ctx context.Context, telegramID int64, code string) error
}

// Options carries everything Flows needs; all fields except the
// optional sinks are required.
type Options struct {
	Store     session.Store
	Texts     *i18n.Bundle
	Menus     *menu.Builder
	Directory Directory
	Seekers   SeekerStore
	Employers EmployerStore
	Vacancies VacancyStore
	Broadcast Broadcaster
	Support   SupportSink
	Recovery  CodeSender
	AdminIDs  []int64
}

// Flows owns the conversation state machine. Safe for concurrent use:
// all read-modify-write cycles on a user's session are serialized on a
// per-user lock.
type Flows struct {
	store     session.Store
	texts     *i18n.Bundle
	menus     *menu.Builder
	dir       Directory
	seekers   SeekerStore
	employers EmployerStore
	vacancies VacancyStore
	broadcast Broadcaster
	support   SupportSink
	recovery  CodeSender
	admins    map[int64]struct{}

	locks [64]sync.Mutex
}

// New builds the conversation engine from its collaborators.
func New(opts Options) *Flows {
	f := &Flows{
		store:     opts.Store,
		texts:     opts.Texts,
		menus:     opts.Menus,
		dir:       opts.Directory,
		seekers:   opts.Seekers,
		employers: opts.Employers,
		vacancies: opts.Vacancies,
		broadcast: opts.Broadcast,
		support:   opts.Support,
		recovery:  opts.Recovery,
		admins:    make(map[int64]struct{}, len(opts.AdminIDs)),
	}
	for _, id := range opts.AdminIDs {
		f.admins[id] = struct{}{}
	}
	return f
}

func (f *Flows) isAdmin(id int64) bool {
	_, ok := f.admins[id]
	return ok
}

func (f *Flows) userLock(id int64) *sync.Mutex {
	return &f.locks[uint64(id)%uint64(len(f.locks))]
}

// lang resolves the reply language: the session's language if the flow
// recorded one, otherwise the persisted account language, otherwise
// the bundle default.
func (f *Flows) lang(ctx context.Context, userID int64, rec session.Record) string {
	if rec.Lang != "" {
		return rec.Lang
	}
	if lang, err := f.dir.LangOf(ctx, userID); err == nil && lang != "" {
		return lang
	}
	return f.texts.DefaultLang()
}

func trimText(s string) string {
	return strings.TrimSpace(s)
}
