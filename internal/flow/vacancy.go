package flow

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	"ishtopar/core/telegram/format"
	tghelpers "ishtopar/core/telegram/helpers"
	"ishtopar/internal/session"
	"ishtopar/internal/storage"
	"ishtopar/internal/validate"
)

// StartVacancy opens vacancy composition for a registered employer.
// A non-zero vacancyID re-runs the questionnaire over an existing
// vacancy and saves the result in place.
func (f *Flows) StartVacancy(c tele.Context, vacancyID int64) error {
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
	if role != "employer" {
		f.send(c, f.texts.T(lang, "err.not_registered"), f.safeMenu(role, lang))
		return nil
	}

	rec := session.Record{
		Step:    session.StepVacancyTitle,
		Flow:    session.FlowVacancy,
		Role:    session.RoleEmployer,
		Lang:    lang,
		Vacancy: &session.VacancyData{VacancyID: vacancyID, Fields: map[string]string{}},
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}
	f.send(c, f.texts.T(lang, "prompt.vacancy_title"), f.menus.Cancel(lang))
	return nil
}

func (f *Flows) vacancyHandler(step session.Step) stepHandler {
	switch step {
	case session.StepVacancyTitle:
		return f.vacTitle
	case session.StepVacancyDescription:
		return f.vacDescription
	case session.StepVacancySalary:
		return f.vacSalary
	case session.StepVacancyRegion:
		return f.vacRegion
	case session.StepVacancyContact:
		return f.vacContact
	case session.StepVacancyConfirm:
		return f.vacConfirm
	}
	return nil
}

func (f *Flows) vacTitle(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepVacancyTitle) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	text, ok := f.profileText(c, lang, c.Text(), 3)
	if !ok {
		return &rec, nil
	}
	rec.Vacancy.Fields["title"] = text
	rec.Step = session.StepVacancyDescription
	f.send(c, f.texts.T(lang, "prompt.vacancy_description"), f.menus.Cancel(lang))
	return &rec, nil
}

func (f *Flows) vacDescription(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepVacancyDescription) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	text, ok := f.profileText(c, lang, c.Text(), 10)
	if !ok {
		return &rec, nil
	}
	rec.Vacancy.Fields["description"] = text
	rec.Step = session.StepVacancySalary
	f.send(c, f.texts.T(lang, "prompt.vacancy_salary"), f.menus.Cancel(lang))
	return &rec, nil
}

func (f *Flows) vacSalary(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepVacancySalary) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	text, ok := f.profileText(c, lang, c.Text(), 2)
	if !ok {
		return &rec, nil
	}
	rec.Vacancy.Fields["salary"] = text
	rec.Step = session.StepVacancyRegion
	f.send(c, f.texts.T(lang, "prompt.vacancy_region"), f.menus.Regions(lang))
	return &rec, nil
}

func (f *Flows) vacRegion(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepVacancyRegion) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	region := trimText(c.Text())
	if !validate.Region(region) {
		f.send(c, f.texts.T(lang, "err.region_pick"), f.menus.Regions(lang))
		return &rec, nil
	}
	rec.Vacancy.Fields["region"] = region
	rec.Step = session.StepVacancyContact
	f.send(c, f.texts.T(lang, "prompt.vacancy_contact"), f.menus.Cancel(lang))
	return &rec, nil
}

func (f *Flows) vacContact(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepVacancyContact) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	text, ok := f.profileText(c, lang, c.Text(), 5)
	if !ok {
		return &rec, nil
	}
	rec.Vacancy.Fields["contact"] = text
	rec.Step = session.StepVacancyConfirm

	preview := f.vacancyPreview(rec.Vacancy.Fields)
	_ = tghelpers.SendMD(c, f.texts.Tf(lang, "prompt.vacancy_confirm", preview), f.menus.YesNo(lang))
	return &rec, nil
}

// vacancyPreview renders the collected fields for the confirmation
// message.
func (f *Flows) vacancyPreview(fields map[string]string) string {
	esc := func(s string) string {
		out, err := format.EscapeMarkdown(s, format.MarkdownV1)
		if err != nil {
			return s
		}
		return out
	}
	return fmt.Sprintf("%s\n\n%s\n\n💵 %s\n📍 %s\n📞 %s",
		esc(fields["title"]),
		esc(fields["description"]),
		esc(fields["salary"]),
		esc(fields["region"]),
		esc(fields["contact"]),
	)
}

func (f *Flows) vacConfirm(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepVacancyConfirm) {
		return nil, nil
	}
	user := c.Sender()
	lang := f.lang(ctx, user.ID, rec)

	switch {
	case f.texts.Matches(c.Text(), "btn.yes"):
		employer, err := f.employers.ByTelegramID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		fields := rec.Vacancy.Fields
		v := storage.Vacancy{
			ID:          rec.Vacancy.VacancyID,
			EmployerID:  employer.ID,
			Title:       fields["title"],
			Description: fields["description"],
			Salary:      fields["salary"],
			Region:      fields["region"],
			Contact:     fields["contact"],
			Active:      true,
		}
		if v.ID != 0 {
			err = f.vacancies.Update(ctx, v)
		} else {
			v.ID, err = f.vacancies.Create(ctx, v)
		}
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "flow", "vacancy.saved",
			slog.Int64("user_id", user.ID),
			slog.Int64("vacancy_id", v.ID),
		)
		f.send(c, f.texts.T(lang, "msg.vacancy_saved"), f.menus.EmployerMain(lang))
		return nil, nil

	case f.texts.Matches(c.Text(), "btn.no"):
		f.send(c, f.texts.T(lang, "msg.vacancy_discarded"), f.menus.EmployerMain(lang))
		return nil, nil
	}

	f.send(c, f.texts.T(lang, "err.confirm_pick"), f.menus.YesNo(lang))
	return &rec, nil
}
