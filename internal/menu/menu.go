// Package menu builds the reply keyboards shown by the bot, keyed by
// role and interface language.
package menu

import (
	tele "gopkg.in/telebot.v4"

	"ishtopar/core/telegram/keyboard"
	"ishtopar/internal/i18n"
	"ishtopar/internal/validate"
)

// Builder constructs localized keyboards.
type Builder struct {
	texts *i18n.Bundle
}

// New creates a Builder over the given locale bundle.
func New(texts *i18n.Bundle) *Builder {
	return &Builder{texts: texts}
}

// RoleSelect offers the two registration tracks.
func (b *Builder) RoleSelect(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{b.texts.T(lang, "btn.seeker_role")},
		[]string{b.texts.T(lang, "btn.employer_role")},
	)
}

// SeekerMain is the seeker's main menu.
func (b *Builder) SeekerMain(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{b.texts.T(lang, "btn.my_resume")},
		[]string{b.texts.T(lang, "btn.settings"), b.texts.T(lang, "btn.support")},
	)
}

// EmployerMain is the employer's main menu.
func (b *Builder) EmployerMain(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{b.texts.T(lang, "btn.new_vacancy"), b.texts.T(lang, "btn.my_vacancies")},
		[]string{b.texts.T(lang, "btn.settings"), b.texts.T(lang, "btn.support")},
	)
}

// Main returns the role-appropriate main menu, falling back to role
// selection for unregistered users.
func (b *Builder) Main(role, lang string) *tele.ReplyMarkup {
	switch role {
	case "seeker":
		return b.SeekerMain(lang)
	case "employer":
		return b.EmployerMain(lang)
	default:
		return b.RoleSelect(lang)
	}
}

// Settings lists the editable profile fields plus account deletion.
func (b *Builder) Settings(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{b.texts.T(lang, "btn.edit_phone"), b.texts.T(lang, "btn.edit_email")},
		[]string{b.texts.T(lang, "btn.edit_name"), b.texts.T(lang, "btn.edit_region")},
		[]string{b.texts.T(lang, "btn.edit_languages")},
		[]string{b.texts.T(lang, "btn.delete_account"), b.texts.T(lang, "btn.cancel")},
	)
}

// Admin is the admin main menu (broadcast, user search).
func (b *Builder) Admin(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{b.texts.T(lang, "btn.admin_broadcast"), b.texts.T(lang, "btn.admin_users")},
		[]string{b.texts.T(lang, "btn.cancel")},
	)
}

// AdminUsers is the admin users submenu.
func (b *Builder) AdminUsers(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{b.texts.T(lang, "btn.admin_search")},
		[]string{b.texts.T(lang, "btn.cancel")},
	)
}

// Cancel is a keyboard with only the cancel button, shown during
// free-text steps.
func (b *Builder) Cancel(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{b.texts.T(lang, "btn.cancel")})
}

// Gender offers the gender options plus cancel.
func (b *Builder) Gender(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{b.texts.T(lang, "gender.male"), b.texts.T(lang, "gender.female")},
		[]string{b.texts.T(lang, "btn.cancel")},
	)
}

// Regions lays the region list out two per row, with cancel at the end.
func (b *Builder) Regions(lang string) *tele.ReplyMarkup {
	rows := make([][]string, 0, len(validate.Regions)/2+2)
	for i := 0; i < len(validate.Regions); i += 2 {
		end := i + 2
		if end > len(validate.Regions) {
			end = len(validate.Regions)
		}
		rows = append(rows, validate.Regions[i:end])
	}
	rows = append(rows, []string{b.texts.T(lang, "btn.cancel")})
	return keyboard.ReplyButtons(rows...)
}

// Languages offers the remaining pick-list languages (already chosen
// ones excluded by the caller), the "other" entry, next, and cancel.
func (b *Builder) Languages(lang string, exclude func(string) bool) *tele.ReplyMarkup {
	var rows [][]string
	var row []string
	for _, l := range validate.Languages {
		if exclude != nil && exclude(l) {
			continue
		}
		row = append(row, l)
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		[]string{b.texts.T(lang, "btn.language_other"), b.texts.T(lang, "btn.next")},
		[]string{b.texts.T(lang, "btn.cancel")},
	)
	return keyboard.ReplyButtons(rows...)
}

// Levels offers the proficiency levels plus cancel.
func (b *Builder) Levels(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{b.texts.T(lang, "level.beginner"), b.texts.T(lang, "level.intermediate")},
		[]string{b.texts.T(lang, "level.fluent"), b.texts.T(lang, "level.native")},
		[]string{b.texts.T(lang, "btn.cancel")},
	)
}

// YesNo offers a confirmation pair.
func (b *Builder) YesNo(lang string) *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{b.texts.T(lang, "btn.yes"), b.texts.T(lang, "btn.no")},
	)
}
