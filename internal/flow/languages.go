package flow

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	"ishtopar/internal/session"
	"ishtopar/internal/storage"
	"ishtopar/internal/validate"
)

// languagePick accepts a pick-list language, a free-text language, the
// "other" hint button, or the next button that closes the sub-flow.
// Where next leads depends on how the sub-flow was entered: profile
// completion continues to the about step, a settings edit commits the
// collected set immediately.
func (f *Flows) languagePick(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepLanguagePick) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)
	text := trimText(c.Text())

	switch {
	case f.texts.Matches(text, "btn.next"):
		if len(rec.TempLanguages) == 0 {
			f.send(c, f.texts.T(lang, "err.language_required"), f.menus.Languages(lang, rec.HasLanguage))
			return &rec, nil
		}
		if rec.Source == session.SourceSettings {
			return f.commitLanguages(ctx, c, lang, rec)
		}
		rec.Step = session.StepAbout
		f.send(c, f.texts.T(lang, "prompt.about"), f.menus.Cancel(lang))
		return &rec, nil

	case f.texts.Matches(text, "btn.language_other"):
		f.send(c, f.texts.T(lang, "prompt.language_custom"), f.menus.Cancel(lang))
		return &rec, nil
	}

	if !validate.MinLen(text, 2) || !validate.Clean(text) {
		f.send(c, f.texts.Tf(lang, "err.too_short", 2), f.menus.Languages(lang, rec.HasLanguage))
		return &rec, nil
	}
	if rec.HasLanguage(text) {
		f.send(c, f.texts.T(lang, "err.language_dup"), f.menus.Languages(lang, rec.HasLanguage))
		return &rec, nil
	}

	rec.CurrentLanguage = text
	rec.Step = session.StepLanguageLevel
	f.send(c, f.texts.Tf(lang, "prompt.language_level", text), f.menus.Levels(lang))
	return &rec, nil
}

// languageLevel pairs the pending language with a proficiency level
// and loops back to the pick step.
func (f *Flows) languageLevel(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepLanguageLevel) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	level := f.matchLevel(c.Text())
	if level == "" {
		f.send(c, f.texts.T(lang, "err.level_pick"), f.menus.Levels(lang))
		return &rec, nil
	}

	rec.TempLanguages = append(rec.TempLanguages, session.LanguageSkill{
		Language: rec.CurrentLanguage,
		Level:    level,
	})
	added := rec.CurrentLanguage
	rec.CurrentLanguage = ""
	rec.Step = session.StepLanguagePick
	f.send(c, f.texts.Tf(lang, "msg.language_added", added), f.menus.Languages(lang, rec.HasLanguage))
	return &rec, nil
}

// languageSubflowOwnsCancel reports whether a cancel belongs to the
// language sub-flow instead of the generic resolver. It does when the
// sub-flow was entered from profile setup: there a cancel closes the
// sub-flow and the parent conversation continues. Entered from
// settings, the generic routing (back to the settings menu) applies.
func languageSubflowOwnsCancel(rec session.Record) bool {
	if rec.Step != session.StepLanguagePick && rec.Step != session.StepLanguageLevel {
		return false
	}
	return rec.Source == session.SourceRegistration
}

// closeLanguageSubflow ends the sub-flow, keeps whatever was collected,
// and moves the conversation on to the about step.
func (f *Flows) closeLanguageSubflow(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	lang := f.lang(ctx, c.Sender().ID, rec)
	rec.CurrentLanguage = ""
	rec.Step = session.StepAbout
	f.send(c, f.texts.T(lang, "prompt.about"), f.menus.Cancel(lang))
	return &rec, nil
}

// matchLevel maps a localized level button press to the canonical key.
func (f *Flows) matchLevel(text string) string {
	for _, lvl := range []string{"beginner", "intermediate", "fluent", "native"} {
		if f.texts.Matches(text, "level."+lvl) {
			return lvl
		}
	}
	return ""
}

// commitLanguages replaces the seeker's stored language set with the
// collected one and returns to the settings menu.
func (f *Flows) commitLanguages(ctx context.Context, c tele.Context, lang string, rec session.Record) (*session.Record, error) {
	langs := make([]storage.SeekerLanguage, 0, len(rec.TempLanguages))
	for _, ls := range rec.TempLanguages {
		langs = append(langs, storage.SeekerLanguage{Language: ls.Language, Level: ls.Level})
	}
	if err := f.seekers.ReplaceLanguages(ctx, c.Sender().ID, langs); err != nil {
		return nil, err
	}

	logger.Info(ctx, "flow", "settings.languages_saved",
		slog.Int64("user_id", c.Sender().ID),
		slog.Int("languages", len(langs)),
	)
	f.send(c, f.texts.T(lang, "msg.settings_saved"), f.menus.Settings(lang))
	return nil, nil
}
