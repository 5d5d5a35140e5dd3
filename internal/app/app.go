// Package app assembles the bot: configuration, storage, services,
// conversation flows, and the Telegram runtime options.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	corebootstrap "ishtopar/core/bootstrap"
	corecmd "ishtopar/core/cmd"
	coretelegram "ishtopar/core/telegram"
	"ishtopar/core/telegram/router"
	"ishtopar/internal/broadcast"
	"ishtopar/internal/flow"
	"ishtopar/internal/handlers"
	"ishtopar/internal/i18n"
	"ishtopar/internal/menu"
	"ishtopar/internal/notify"
	"ishtopar/internal/resume"
	"ishtopar/internal/session"
	"ishtopar/internal/storage"
)

// App holds the assembled components for the runtime.
type App struct {
	cfg       *Config
	db        *sqlx.DB
	registry  *coretelegram.Registry
	flows     *flow.Flows
	handlers  *handlers.Handlers
	broadcast *broadcast.Service
	notifier  *notify.Telegram
}

// LoadConfigCarrier adapts LoadConfig to the cmd runner signature.
func LoadConfigCarrier(path string) (corecmd.ConfigCarrier, error) {
	return LoadConfig(path)
}

// Bootstrap initializes infrastructure and wires every component.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	texts, err := i18n.Load(cfg.Bot.DefaultLang)
	if err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("app: load locales: %w", err)
	}

	store, err := buildSessionStore(cfg.Session)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	seekers := storage.NewSeekers(res.DB)
	employers := storage.NewEmployers(res.DB)
	vacancies := storage.NewVacancies(res.DB)
	directory := storage.NewDirectory(res.DB)

	menus := menu.New(texts)
	notifier := notify.New(texts, cfg.Bot.SupportChatID)
	sender := broadcast.NewService(seekers, employers)

	flows := flow.New(flow.Options{
		Store:     store,
		Texts:     texts,
		Menus:     menus,
		Directory: directory,
		Seekers:   seekers,
		Employers: employers,
		Vacancies: vacancies,
		Broadcast: sender,
		Support:   notifier,
		Recovery:  notifier,
		AdminIDs:  cfg.Telegram.AdminIDs,
	})

	resumes, err := resume.New()
	if err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("app: resume generator: %w", err)
	}

	h := handlers.New(handlers.Deps{
		Flows:     flows,
		Texts:     texts,
		Menus:     menus,
		Directory: directory,
		Seekers:   seekers,
		Employers: employers,
		Vacancies: vacancies,
		Resume:    resumes,
		AdminIDs:  cfg.Telegram.AdminIDs,
	})

	reg := coretelegram.NewRegistry()
	h.Register(reg)

	return &App{
		cfg:       cfg,
		db:        res.DB,
		registry:  reg,
		flows:     flows,
		handlers:  h,
		broadcast: sender,
		notifier:  notifier,
	}, nil
}

func buildSessionStore(cfg SessionConfig) (session.Store, error) {
	if cfg.Driver == "redis" {
		store, err := session.NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("app: session store: %w", err)
		}
		return store, nil
	}
	return session.NewMemoryStore(), nil
}

// TelegramRunOptions satisfies cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminIDs: a.cfg.Telegram.AdminIDs,
	})
	routes = append(routes, router.TextRoutes(a.flows, a.registry, router.TextOptions{
		UnknownText:     a.handlers.UnknownText(),
		UnknownDocument: a.handlers.UnknownDocument(),
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{
		NotFound: a.handlers.UnknownCallback(),
	}))

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.broadcast.Bind(rt.Bot, rt.Dispatcher)
			a.notifier.Bind(rt.Bot)
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}
