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

// StartProfile opens the resume questionnaire for a registered seeker.
func (f *Flows) StartProfile(c tele.Context) error {
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
	if role != "seeker" {
		f.send(c, f.texts.T(lang, "err.not_registered"), f.safeMenu(role, lang))
		return nil
	}

	rec := session.Record{
		Step:    session.StepProfession,
		Flow:    session.FlowProfile,
		Role:    session.RoleSeeker,
		Source:  session.SourceRegistration,
		Lang:    lang,
		Profile: &session.ProfileData{Fields: map[string]string{}},
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}

	f.send(c, f.texts.T(lang, "prompt.profession"), f.menus.Cancel(lang))
	return nil
}

func (f *Flows) profileHandler(step session.Step) stepHandler {
	switch step {
	case session.StepProfession:
		return f.profProfession
	case session.StepExperience:
		return f.profExperience
	case session.StepEducation:
		return f.profEducation
	case session.StepLanguagePick:
		return f.languagePick
	case session.StepLanguageLevel:
		return f.languageLevel
	case session.StepAbout:
		return f.profAbout
	}
	return nil
}

// profileText validates one free-text profile answer; on rejection it
// has already replied.
func (f *Flows) profileText(c tele.Context, lang, input string, minLen int) (string, bool) {
	text := trimText(input)
	if !validate.MinLen(text, minLen) {
		f.send(c, f.texts.Tf(lang, "err.too_short", minLen), f.menus.Cancel(lang))
		return "", false
	}
	if !validate.Clean(text) {
		f.send(c, f.texts.T(lang, "err.profanity"), f.menus.Cancel(lang))
		return "", false
	}
	return text, true
}

func (f *Flows) profProfession(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepProfession) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	text, ok := f.profileText(c, lang, c.Text(), 3)
	if !ok {
		return &rec, nil
	}
	rec.Profile.Fields["profession"] = text
	rec.Step = session.StepExperience
	f.send(c, f.texts.T(lang, "prompt.experience"), f.menus.Cancel(lang))
	return &rec, nil
}

func (f *Flows) profExperience(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepExperience) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	text, ok := f.profileText(c, lang, c.Text(), 5)
	if !ok {
		return &rec, nil
	}
	rec.Profile.Fields["experience"] = text
	rec.Step = session.StepEducation
	f.send(c, f.texts.T(lang, "prompt.education"), f.menus.Cancel(lang))
	return &rec, nil
}

func (f *Flows) profEducation(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepEducation) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	text, ok := f.profileText(c, lang, c.Text(), 5)
	if !ok {
		return &rec, nil
	}
	rec.Profile.Fields["education"] = text
	rec.Step = session.StepLanguagePick
	f.send(c, f.texts.T(lang, "prompt.language_pick"), f.menus.Languages(lang, rec.HasLanguage))
	return &rec, nil
}

func (f *Flows) profAbout(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepAbout) {
		return nil, nil
	}
	user := c.Sender()
	lang := f.lang(ctx, user.ID, rec)

	text, ok := f.profileText(c, lang, c.Text(), 10)
	if !ok {
		return &rec, nil
	}
	rec.Profile.Fields["about"] = text

	for _, field := range []string{"profession", "experience", "education", "about"} {
		if v, ok := rec.Profile.Fields[field]; ok {
			if err := f.seekers.UpdateField(ctx, user.ID, field, v); err != nil {
				return nil, err
			}
		}
	}
	langs := make([]storage.SeekerLanguage, 0, len(rec.TempLanguages))
	for _, ls := range rec.TempLanguages {
		langs = append(langs, storage.SeekerLanguage{Language: ls.Language, Level: ls.Level})
	}
	if err := f.seekers.ReplaceLanguages(ctx, user.ID, langs); err != nil {
		return nil, err
	}

	logger.Info(ctx, "flow", "profile.completed",
		slog.Int64("user_id", user.ID),
		slog.Int("languages", len(langs)),
	)
	f.send(c, f.texts.T(lang, "msg.profile_done"), f.menus.SeekerMain(lang))
	return nil, nil
}
