package flow

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	tele "gopkg.in/telebot.v4"

	"ishtopar/core/logger"
	tghelpers "ishtopar/core/telegram/helpers"
	"ishtopar/internal/captcha"
	"ishtopar/internal/session"
	"ishtopar/internal/storage"
	"ishtopar/internal/validate"
)

// StartRegistration opens the registration conversation for the chosen
// role. Both tracks begin with an arithmetic captcha.
func (f *Flows) StartRegistration(c tele.Context, role session.Role, lang string) error {
	user := c.Sender()
	if user == nil {
		return nil
	}

	lock := f.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx := tghelpers.BuildContext(c)
	if existing, err := f.dir.RoleOf(ctx, user.ID); err != nil {
		return err
	} else if existing != "" {
		f.send(c, f.texts.T(lang, "err.already_registered"), f.menus.Main(existing, lang))
		return nil
	}

	ch := captcha.New()
	rec := session.Record{
		Step:          session.StepCaptcha,
		Flow:          session.FlowRegistration,
		Role:          role,
		Lang:          lang,
		CaptchaAnswer: ch.Answer,
		NextStep:      session.StepPhone,
		Registration:  &session.RegistrationData{Fields: map[string]string{}},
	}
	if err := f.store.Set(ctx, user.ID, rec); err != nil {
		return err
	}

	logger.Info(ctx, "flow", "registration.started",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(role)),
	)
	f.send(c, f.texts.Tf(lang, "prompt.captcha", ch.Question), f.menus.Cancel(lang))
	return nil
}

// captchaStep gates the flow named in rec.NextStep. A wrong answer
// issues a fresh challenge; state stays on the captcha step.
func (f *Flows) captchaStep(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepCaptcha) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	if !captcha.Check(c.Text(), rec.CaptchaAnswer) {
		ch := captcha.New()
		rec.CaptchaAnswer = ch.Answer
		f.send(c, f.texts.Tf(lang, "err.captcha_wrong", ch.Question), f.menus.Cancel(lang))
		return &rec, nil
	}

	rec.Step = rec.NextStep
	rec.NextStep = ""
	rec.CaptchaAnswer = 0
	f.promptStep(c, lang, rec)
	return &rec, nil
}

// registrationHandler routes field steps of the two registration
// tracks by step and role.
func (f *Flows) registrationHandler(rec session.Record) stepHandler {
	switch rec.Step {
	case session.StepPhone:
		return f.regPhone
	case session.StepEmail:
		return f.regEmail
	case session.StepFullName:
		if rec.Role == session.RoleSeeker {
			return f.regFullName
		}
	case session.StepCompanyName:
		if rec.Role == session.RoleEmployer {
			return f.regCompanyName
		}
	case session.StepGender:
		if rec.Role == session.RoleSeeker {
			return f.regGender
		}
	case session.StepRegion:
		return f.regRegion
	case session.StepCity:
		return f.regCity
	case session.StepAge:
		if rec.Role == session.RoleSeeker {
			return f.regAge
		}
	case session.StepPassword:
		if rec.Role == session.RoleEmployer {
			return f.regPassword
		}
	}
	return nil
}

// promptStep sends the question for the step the record just advanced
// to, with the keyboard that step expects.
func (f *Flows) promptStep(c tele.Context, lang string, rec session.Record) {
	switch rec.Step {
	case session.StepPhone:
		f.send(c, f.texts.T(lang, "prompt.phone"), f.menus.Cancel(lang))
	case session.StepEmail:
		f.send(c, f.texts.T(lang, "prompt.email"), f.menus.Cancel(lang))
	case session.StepFullName:
		f.send(c, f.texts.T(lang, "prompt.full_name"), f.menus.Cancel(lang))
	case session.StepCompanyName:
		f.send(c, f.texts.T(lang, "prompt.company_name"), f.menus.Cancel(lang))
	case session.StepGender:
		f.send(c, f.texts.T(lang, "prompt.gender"), f.menus.Gender(lang))
	case session.StepRegion:
		f.send(c, f.texts.T(lang, "prompt.region"), f.menus.Regions(lang))
	case session.StepCity:
		f.send(c, f.texts.T(lang, "prompt.city"), f.menus.Cancel(lang))
	case session.StepAge:
		f.send(c, f.texts.T(lang, "prompt.age"), f.menus.Cancel(lang))
	case session.StepPassword:
		f.send(c, f.texts.T(lang, "prompt.password"), f.menus.Cancel(lang))
	}
}

func (f *Flows) regPhone(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepPhone) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

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

	rec.Registration.Fields["phone"] = phone
	rec.Step = session.StepEmail
	f.promptStep(c, lang, rec)
	return &rec, nil
}

func (f *Flows) regEmail(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepEmail) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

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

	rec.Registration.Fields["email"] = email
	if rec.Role == session.RoleEmployer {
		rec.Step = session.StepCompanyName
	} else {
		rec.Step = session.StepFullName
	}
	f.promptStep(c, lang, rec)
	return &rec, nil
}

func (f *Flows) regFullName(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepFullName) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	name, ok := f.checkDisplayName(ctx, c, lang, c.Text())
	if !ok {
		return &rec, nil
	}
	rec.Registration.Fields["full_name"] = name
	rec.Step = session.StepGender
	f.promptStep(c, lang, rec)
	return &rec, nil
}

func (f *Flows) regCompanyName(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepCompanyName) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	name, ok := f.checkDisplayName(ctx, c, lang, c.Text())
	if !ok {
		return &rec, nil
	}
	rec.Registration.Fields["company_name"] = name
	rec.Step = session.StepRegion
	f.promptStep(c, lang, rec)
	return &rec, nil
}

// checkDisplayName validates and uniqueness-checks a full or company
// name; on rejection it has already replied.
func (f *Flows) checkDisplayName(ctx context.Context, c tele.Context, lang, input string) (string, bool) {
	name := trimText(input)
	if !validate.MinLen(name, 3) {
		f.send(c, f.texts.Tf(lang, "err.too_short", 3), f.menus.Cancel(lang))
		return "", false
	}
	if !validate.Clean(name) {
		f.send(c, f.texts.T(lang, "err.profanity"), f.menus.Cancel(lang))
		return "", false
	}
	taken, err := f.dir.DisplayNameInUse(ctx, name)
	if err != nil {
		taken = false
		logger.Warn(ctx, "flow", "name.uniqueness_check_failed",
			slog.String("err", err.Error()),
		)
	}
	if taken {
		f.send(c, f.texts.T(lang, "err.name_taken"), f.menus.Cancel(lang))
		return "", false
	}
	return name, true
}

func (f *Flows) regGender(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepGender) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	gender := f.matchGender(c.Text())
	if gender == "" {
		f.send(c, f.texts.T(lang, "err.gender_pick"), f.menus.Gender(lang))
		return &rec, nil
	}
	rec.Registration.Fields["gender"] = gender
	rec.Step = session.StepRegion
	f.promptStep(c, lang, rec)
	return &rec, nil
}

// matchGender maps a localized button press to the canonical value.
func (f *Flows) matchGender(text string) string {
	for _, g := range []string{"male", "female"} {
		if f.texts.Matches(text, "gender."+g) {
			return g
		}
	}
	return ""
}

func (f *Flows) regRegion(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepRegion) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	region := trimText(c.Text())
	if !validate.Region(region) {
		f.send(c, f.texts.T(lang, "err.region_pick"), f.menus.Regions(lang))
		return &rec, nil
	}
	rec.Registration.Fields["region"] = region
	rec.Step = session.StepCity
	f.promptStep(c, lang, rec)
	return &rec, nil
}

func (f *Flows) regCity(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepCity) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	city := trimText(c.Text())
	if !validate.MinLen(city, 2) {
		f.send(c, f.texts.Tf(lang, "err.too_short", 2), f.menus.Cancel(lang))
		return &rec, nil
	}
	if !validate.Clean(city) {
		f.send(c, f.texts.T(lang, "err.profanity"), f.menus.Cancel(lang))
		return &rec, nil
	}

	rec.Registration.Fields["city_selection"] = city
	if rec.Role == session.RoleEmployer {
		rec.Step = session.StepPassword
	} else {
		rec.Step = session.StepAge
	}
	f.promptStep(c, lang, rec)
	return &rec, nil
}

func (f *Flows) regAge(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepAge) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	age, ok := validate.Age(c.Text())
	if !ok {
		f.send(c, f.texts.T(lang, "err.age_range"), f.menus.Cancel(lang))
		return &rec, nil
	}

	fields := rec.Registration.Fields
	err := f.seekers.Create(ctx, storage.Seeker{
		TelegramID: c.Sender().ID,
		Phone:      fields["phone"],
		Email:      fields["email"],
		FullName:   fields["full_name"],
		Gender:     fields["gender"],
		Region:     fields["region"],
		City:       fields["city_selection"],
		Age:        age,
		Lang:       lang,
	})
	if err != nil {
		return nil, f.registrationFailed(ctx, c, lang, err)
	}

	logger.Info(ctx, "flow", "registration.completed",
		slog.Int64("user_id", c.Sender().ID),
		slog.String("role", string(session.RoleSeeker)),
	)
	f.send(c, f.texts.T(lang, "msg.registration_done"), f.menus.SeekerMain(lang))
	return nil, nil
}

func (f *Flows) regPassword(ctx context.Context, c tele.Context, rec session.Record) (*session.Record, error) {
	if f.expired(ctx, c, rec, session.StepPassword) {
		return nil, nil
	}
	lang := f.lang(ctx, c.Sender().ID, rec)

	if !validate.Password(c.Text()) {
		f.send(c, f.texts.T(lang, "err.password_weak"), f.menus.Cancel(lang))
		return &rec, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Text()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	fields := rec.Registration.Fields
	err = f.employers.Create(ctx, storage.Employer{
		TelegramID:   c.Sender().ID,
		Phone:        fields["phone"],
		Email:        fields["email"],
		CompanyName:  fields["company_name"],
		Region:       fields["region"],
		City:         fields["city_selection"],
		PasswordHash: string(hash),
		Lang:         lang,
	})
	if err != nil {
		return nil, f.registrationFailed(ctx, c, lang, err)
	}

	logger.Info(ctx, "flow", "registration.completed",
		slog.Int64("user_id", c.Sender().ID),
		slog.String("role", string(session.RoleEmployer)),
	)
	f.send(c, f.texts.T(lang, "msg.registration_done"), f.menus.EmployerMain(lang))
	return nil, nil
}

// registrationFailed turns a terminal insert failure into a user-facing
// outcome and always ends the conversation. A duplicate means the
// account appeared mid-conversation through another channel.
func (f *Flows) registrationFailed(ctx context.Context, c tele.Context, lang string, err error) error {
	if errors.Is(err, storage.ErrDuplicate) {
		logger.Warn(ctx, "flow", "registration.duplicate",
			slog.Int64("user_id", c.Sender().ID),
		)
		f.send(c, f.texts.T(lang, "err.already_registered"), f.menus.RoleSelect(lang))
		return nil
	}
	logger.Error(ctx, "flow", "registration.commit_failed",
		slog.Int64("user_id", c.Sender().ID),
		slog.String("err", err.Error()),
	)
	f.send(c, f.texts.T(lang, "err.registration_failed"), f.menus.RoleSelect(lang))
	return nil
}
