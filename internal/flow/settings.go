package flow

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	tghelpers "ishtopar/core/telegram/helpers"
	"ishtopar/internal/session"
	"ishtopar/internal/storage"
	"ishtopar/internal/validate"
)

// EditableField names a settings button target.
type EditableField string

const (
	FieldPhone  EditableField = "phone"
	FieldEmail  EditableField = "email"
	FieldName   EditableField = "name"
	FieldRegion EditableField = "region"
)

// StartSettingsEdit opens a single-field edit conversation. The name
// field maps to the full name for seekers and the company name for
// employers.
func (f *Flows) StartSettingsEdit(c tele.Context, field EditableField) error {
	user := c.Sender()
	if user == nil {
		return nil
	}

	lock := f.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	role, err := f.dir.RoleOf(ctx, user.ID)
	if err != nil {
		return err
	}
	lang := f.lang(ctx, user.ID, session.Record{})
	if role == "" {
		f.send(c, f.texts.T(lang, "err.not_registered"), f.menus.RoleSelect(lang))
		return nil
	}

	var step session.Step
	var column string
	switch field {
	case FieldPhone:
		step, column = session.StepPhone, "phone"
	case FieldEmail:
		step, column = session.StepEmail, "email"
	case FieldRegion:
		step, column = session.StepRegion, "region"
	case FieldName:
		if role == "employer" {
			step, column = session.StepCompanyName, "company_name"
		} else {
			step, column = session.StepFullName, "full_name"
		}
	default:
		return nil
	}

	rec := session.Record{
		Step:         step,
		Flow:         session.FlowSettings,
		Role:         session.Role(role),
		Lang:         lang,
		SettingsEdit: &session.SettingsEditData{Field: column},
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}
	f.promptStep(c, lang, rec)
	return nil
}

// StartLanguagesEdit opens the language sub-flow from settings with
// the seeker's stored set preloaded.
func (f *Flows) StartLanguagesEdit(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}

	lock := f.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	seeker, err := f.seekers.ByTelegramID(ctx, user.ID)
	lang := f.lang(ctx, user.ID, session.Record{})
	if err != nil {
		f.send(c, f.texts.T(lang, "err.not_registered"), f.menus.RoleSelect(lang))
		return nil
	}

	rec := session.Record{
		Step:   session.StepLanguagePick,
		Flow:   session.FlowSettings,
		Role:   session.RoleSeeker,
		Source: session.SourceSettings,
		Lang:   lang,
	}
	for _, sl := range seeker.Languages {
		rec.TempLanguages = append(rec.TempLanguages, session.LanguageSkill{
			Language: sl.Language,
			Level:    sl.Level,
		})
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}
	f.send(c, f.texts.T(lang, "prompt.language_pick"), f.menus.Languages(lang, rec.HasLanguage))
	return nil
}

// settingsHandler routes the field-edit steps. The language sub-flow
// steps are claimed earlier by the profile family.
func (f *Flows) settingsHandler(rec session.Record) stepHandler {
	switch rec.Step {
	case session.StepPhone, session.StepEmail, session.StepRegion,
		session.StepFullName, session.StepCompanyName:
		return f.settingsValue
	}
	return nil
}

// settingsValue applies registration-grade validation to the new value
// and writes it through the role's repository.
func (f *Flows) settingsValue(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	user := c.Sender()
	lang := f.lang(ctx, user.ID, rec)
	if rec.SettingsEdit == nil {
		f.send(c, f.texts.T(lang, "err.session_expired"), f.menus.Settings(lang))
		return nil, nil
	}

	var value string
	switch rec.Step {
	case session.StepPhone:
		phone, ok := validate.NormalizePhone(c.Text())
		if !ok {
			f.send(c, f.texts.T(lang, "err.phone_format"), f.menus.Cancel(lang))
			return &rec, nil
		}
		taken, err := f.dir.PhoneInUse(ctx, phone)
		if err != nil {
			return nil, err
		}
		if taken {
			f.send(c, f.texts.T(lang, "err.phone_taken"), f.menus.Cancel(lang))
			return &rec, nil
		}
		value = phone

	case session.StepEmail:
		email := storage.Normalize(c.Text())
		if !validate.Email(email) {
			f.send(c, f.texts.T(lang, "err.email_format"), f.menus.Cancel(lang))
			return &rec, nil
		}
		taken, err := f.dir.EmailInUse(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			f.send(c, f.texts.T(lang, "err.email_taken"), f.menus.Cancel(lang))
			return &rec, nil
		}
		value = email

	case session.StepRegion:
		region := trimText(c.Text())
		if !validate.Region(region) {
			f.send(c, f.texts.T(lang, "err.region_pick"), f.menus.Regions(lang))
			return &rec, nil
		}
		value = region

	case session.StepFullName, session.StepCompanyName:
		name, ok := f.checkDisplayName(ctx, c, lang, c.Text())
		if !ok {
			return &rec, nil
		}
		value = name

	default:
		f.send(c, f.texts.T(lang, "err.session_expired"), f.menus.Settings(lang))
		return nil, nil
	}

	var err error
	if rec.Role == session.RoleEmployer {
		err = f.employers.UpdateField(ctx, user.ID, rec.SettingsEdit.Field, value)
	} else {
		err = f.seekers.UpdateField(ctx, user.ID, rec.SettingsEdit.Field, value)
	}
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "flow", "settings.saved",
		slog.Int64("user_id", user.ID),
		slog.String("field", rec.SettingsEdit.Field),
	)
	f.send(c, f.texts.T(lang, "msg.settings_saved"), f.menus.Settings(lang))
	return nil, nil
}

// StartDelete asks for confirmation before erasing the account.
func (f *Flows) StartDelete(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}

	lock := f.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	role, err := f.dir.RoleOf(ctx, user.ID)
	if err != nil {
		return err
	}
	lang := f.lang(ctx, user.ID, session.Record{})
	if role == "" {
		f.send(c, f.texts.T(lang, "err.not_registered"), f.menus.RoleSelect(lang))
		return nil
	}

	rec := session.Record{
		Step: session.StepDeleteConfirm,
		Flow: session.FlowDelete,
		Role: session.Role(role),
		Lang: lang,
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}
	f.send(c, f.texts.T(lang, "prompt.delete_confirm"), f.menus.YesNo(lang))
	return nil
}

// deleteConfirm erases the account, languages and vacancies included,
// only on an explicit yes.
func (f *Flows) deleteConfirm(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepDeleteConfirm) {
		return nil, nil
	}
	user := c.Sender()
	lang := f.lang(ctx, user.ID, rec)

	switch {
	case f.texts.Matches(c.Text(), "btn.yes"):
		var err error
		if rec.Role == session.RoleEmployer {
			err = f.employers.Delete(ctx, user.ID)
		} else {
			err = f.seekers.Delete(ctx, user.ID)
		}
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "flow", "account.deleted",
			slog.Int64("user_id", user.ID),
			slog.String("role", string(rec.Role)),
		)
		f.send(c, f.texts.T(lang, "msg.deleted"), f.menus.RoleSelect(lang))
		return nil, nil

	case f.texts.Matches(c.Text(), "btn.no"):
		f.send(c, f.texts.T(lang, "msg.delete_kept"), f.menus.Main(string(rec.Role), lang))
		return nil, nil
	}

	f.send(c, f.texts.T(lang, "err.confirm_pick"), f.menus.YesNo(lang))
	return &rec, nil
}
