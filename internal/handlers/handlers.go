// Package handlers wires commands, menu buttons, and callbacks to the
// conversation flows and services. Menu buttons arrive as plain text,
// so anything an active flow did not claim lands in the registry text
// fallback and is matched against the localized button labels there.
package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	tg "ishtopar/core/telegram"
	"ishtopar/core/telegram/callbacks"
	"ishtopar/core/telegram/commands"
	tghelpers "ishtopar/core/telegram/helpers"
	"ishtopar/core/telegram/keyboard"
	"ishtopar/core/telegram/ui"
	"ishtopar/internal/flow"
	"ishtopar/internal/i18n"
	"ishtopar/internal/menu"
	"ishtopar/internal/resume"
	"ishtopar/internal/session"
	"ishtopar/internal/storage"
)

// VacancyBrowser is the vacancy repository surface the menu needs.
type VacancyBrowser interface {
	ByEmployer(ctx context.Context, employerID int64) ([]storage.Vacancy, error)
	Delete(ctx context.Context, id, employerID int64) error
}

// Deps collects everything the handlers depend on.
type Deps struct {
	Flows     *flow.Flows
	Texts     *i18n.Bundle
	Menus     *menu.Builder
	Directory flow.Directory
	Seekers   flow.SeekerStore
	Employers flow.EmployerStore
	Vacancies VacancyBrowser
	Resume    *resume.Generator
	AdminIDs  []int64
}

// Handlers owns the non-flow update handling.
type Handlers struct {
	flows     *flow.Flows
	texts     *i18n.Bundle
	menus     *menu.Builder
	dir       flow.Directory
	seekers   flow.SeekerStore
	employers flow.EmployerStore
	vacancies VacancyBrowser
	resume    *resume.Generator
	admins    map[int64]struct{}
}

// New builds the handler set.
func New(d Deps) *Handlers {
	h := &Handlers{
		flows:     d.Flows,
		texts:     d.Texts,
		menus:     d.Menus,
		dir:       d.Directory,
		seekers:   d.Seekers,
		employers: d.Employers,
		vacancies: d.Vacancies,
		resume:    d.Resume,
		admins:    make(map[int64]struct{}, len(d.AdminIDs)),
	}
	for _, id := range d.AdminIDs {
		h.admins[id] = struct{}{}
	}
	return h
}

func (h *Handlers) isAdmin(id int64) bool {
	_, ok := h.admins[id]
	return ok
}

// lang resolves the reply language: the persisted account language
// first, then the Telegram client language if we ship that locale,
// then the bundle default.
func (h *Handlers) lang(ctx context.Context, c tele.Context) string {
	user := c.Sender()
	if user == nil {
		return h.texts.DefaultLang()
	}
	if lang, err := h.dir.LangOf(ctx, user.ID); err == nil && lang != "" {
		return lang
	}
	for _, l := range h.texts.Langs() {
		if l == user.LanguageCode {
			return l
		}
	}
	return h.texts.DefaultLang()
}

// Register attaches commands and callbacks to the registry.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.start,
		Description: "Main menu",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h.cancel,
		Description: "Cancel the current action",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     h.admin,
		Description: "Admin menu",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback("vac_edit", h.vacancyEditCallback)
	_ = reg.RegisterCallback("vac_del", h.vacancyDeleteCallback)

	reg.SetTextFallback(h.menuText)
}

func (h *Handlers) start(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	lang := h.lang(ctx, c)
	role, err := h.dir.RoleOf(ctx, c.Sender().ID)
	if err != nil {
		return err
	}

	if role == "" {
		_ = tghelpers.SendText(c, h.texts.T(lang, "msg.welcome"), &tele.SendOptions{
			ReplyMarkup: h.menus.RoleSelect(lang),
		})
		return nil
	}
	caption := h.texts.T(lang, "menu.main_"+role)
	return tghelpers.SendText(c, caption, &tele.SendOptions{ReplyMarkup: h.menus.Main(role, lang)})
}

func (h *Handlers) cancel(c tele.Context) error {
	return h.flows.CancelCurrentFlow(c)
}

func (h *Handlers) admin(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin")
	if !h.isAdmin(c.Sender().ID) {
		return nil
	}
	lang := h.lang(ctx, c)
	return tghelpers.SendText(c, h.texts.T(lang, "menu.admin"), &tele.SendOptions{
		ReplyMarkup: h.menus.Admin(lang),
	})
}

// menuText is the registry text fallback: matches menu button labels
// in any shipped language and starts the matching action.
func (h *Handlers) menuText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	text := strings.TrimSpace(c.Text())
	lang := h.lang(ctx, c)

	switch {
	case h.texts.Matches(text, "btn.seeker_role"):
		return h.flows.StartRegistration(c, session.RoleSeeker, lang)
	case h.texts.Matches(text, "btn.employer_role"):
		return h.flows.StartRegistration(c, session.RoleEmployer, lang)
	case h.texts.Matches(text, "btn.register"):
		return tghelpers.SendText(c, h.texts.T(lang, "menu.role_select"), &tele.SendOptions{
			ReplyMarkup: h.menus.RoleSelect(lang),
		})

	case h.texts.Matches(text, "btn.settings"):
		return h.settingsMenu(ctx, c, lang)
	case h.texts.Matches(text, "btn.edit_phone"):
		return h.flows.StartSettingsEdit(c, flow.FieldPhone)
	case h.texts.Matches(text, "btn.edit_email"):
		return h.flows.StartSettingsEdit(c, flow.FieldEmail)
	case h.texts.Matches(text, "btn.edit_name"):
		return h.flows.StartSettingsEdit(c, flow.FieldName)
	case h.texts.Matches(text, "btn.edit_region"):
		return h.flows.StartSettingsEdit(c, flow.FieldRegion)
	case h.texts.Matches(text, "btn.edit_languages"):
		return h.flows.StartLanguagesEdit(c)
	case h.texts.Matches(text, "btn.delete_account"):
		return h.flows.StartDelete(c)

	case h.texts.Matches(text, "btn.my_resume"):
		return h.sendResume(ctx, c, lang)
	case h.texts.Matches(text, "btn.new_vacancy"):
		return h.flows.StartVacancy(c, 0)
	case h.texts.Matches(text, "btn.my_vacancies"):
		return h.listVacancies(ctx, c, lang)

	case h.texts.Matches(text, "btn.support"):
		return h.flows.StartSupport(c)
	case h.texts.Matches(text, "btn.forgot_password"):
		return h.flows.StartRecovery(c)
	case h.texts.Matches(text, "btn.cancel"):
		return h.flows.CancelCurrentFlow(c)

	case h.texts.Matches(text, "btn.admin_broadcast"):
		if h.isAdmin(c.Sender().ID) {
			return h.flows.StartBroadcast(c)
		}
	case h.texts.Matches(text, "btn.admin_users"):
		if h.isAdmin(c.Sender().ID) {
			return tghelpers.SendText(c, h.texts.T(lang, "menu.admin_users"), &tele.SendOptions{
				ReplyMarkup: h.menus.AdminUsers(lang),
			})
		}
	case h.texts.Matches(text, "btn.admin_search"):
		if h.isAdmin(c.Sender().ID) {
			return h.flows.StartUserSearch(c)
		}
	}

	role, _ := h.dir.RoleOf(ctx, c.Sender().ID)
	return tghelpers.SendText(c, h.texts.T(lang, "msg.use_menu"), &tele.SendOptions{
		ReplyMarkup: h.menus.Main(role, lang),
	})
}

func (h *Handlers) settingsMenu(ctx context.Context, c tele.Context, lang string) error {
	role, err := h.dir.RoleOf(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	if role == "" {
		return tghelpers.SendText(c, h.texts.T(lang, "err.not_registered"), &tele.SendOptions{
			ReplyMarkup: h.menus.RoleSelect(lang),
		})
	}
	return tghelpers.SendText(c, h.texts.T(lang, "menu.settings"), &tele.SendOptions{
		ReplyMarkup: h.menus.Settings(lang),
	})
}

// sendResume renders the seeker's PDF and hands it over as a document.
func (h *Handlers) sendResume(ctx context.Context, c tele.Context, lang string) error {
	seeker, err := h.seekers.ByTelegramID(ctx, c.Sender().ID)
	if errors.Is(err, storage.ErrNotFound) {
		return tghelpers.SendText(c, h.texts.T(lang, "err.not_registered"), &tele.SendOptions{
			ReplyMarkup: h.menus.RoleSelect(lang),
		})
	}
	if err != nil {
		return err
	}

	data, name, err := h.resume.Render(seeker)
	if err != nil {
		return err
	}
	logger.Info(ctx, "tg", "resume.rendered",
		slog.Int64("seeker_id", seeker.ID),
		slog.Int("bytes", len(data)),
	)
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: name,
		MIME:     "application/pdf",
		Caption:  h.texts.T(lang, "msg.resume_caption"),
	}
	return c.Send(doc)
}

// listVacancies shows each vacancy with inline edit/delete actions.
func (h *Handlers) listVacancies(ctx context.Context, c tele.Context, lang string) error {
	employer, err := h.employers.ByTelegramID(ctx, c.Sender().ID)
	if errors.Is(err, storage.ErrNotFound) {
		return tghelpers.SendText(c, h.texts.T(lang, "err.not_registered"), &tele.SendOptions{
			ReplyMarkup: h.menus.RoleSelect(lang),
		})
	}
	if err != nil {
		return err
	}

	list, err := h.vacancies.ByEmployer(ctx, employer.ID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return tghelpers.SendText(c, h.texts.T(lang, "msg.no_vacancies"), &tele.SendOptions{
			ReplyMarkup: h.menus.EmployerMain(lang),
		})
	}

	for _, v := range list {
		card := fmt.Sprintf("%s\n💵 %s\n📍 %s", v.Title, v.Salary, v.Region)
		markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "✏️", Unique: "vac_edit", Data: strconv.FormatInt(v.ID, 10)},
			{Text: "🗑", Unique: "vac_del", Data: strconv.FormatInt(v.ID, 10)},
		})
		if err := tghelpers.SendText(c, card, &tele.SendOptions{ReplyMarkup: markup}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) vacancyEditCallback(c tele.Context) error {
	vacancyID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	return h.flows.StartVacancy(c, vacancyID)
}

func (h *Handlers) vacancyDeleteCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	lang := h.lang(ctx, c)

	vacancyID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	employer, err := h.employers.ByTelegramID(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	if err := h.vacancies.Delete(ctx, vacancyID, employer.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	logger.Info(ctx, "tg", "vacancy.deleted",
		slog.Int64("vacancy_id", vacancyID),
		slog.Int64("user_id", c.Sender().ID),
	)
	return tghelpers.SendText(c, h.texts.T(lang, "msg.vacancy_deleted"), &tele.SendOptions{
		ReplyMarkup: h.menus.EmployerMain(lang),
	})
}

var _ ui.FallbackProvider = (*Handlers)(nil)

// UnknownText implements the fallback provider; the registry text
// fallback already routes buttons, so this only covers routers built
// without a registry fallback.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return h.menuText
}

// UnknownDocument ignores stray documents.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error { return nil }
}

// UnknownCallback answers unknown callbacks quietly.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{})
	}
}
