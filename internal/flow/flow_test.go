package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"ishtopar/internal/i18n"
	"ishtopar/internal/menu"
	"ishtopar/internal/session"
	"ishtopar/internal/storage"
)

// fakeCtx implements the slice of tele.Context the flows touch and
// records outgoing messages. The embedded nil interface makes any
// unexpected method call fail loudly.
type fakeCtx struct {
	tele.Context
	sender *tele.User
	text   string
	sent   []string
	kv     map[string]any
}

func newFakeCtx(userID int64, text string) *fakeCtx {
	return &fakeCtx{
		sender: &tele.User{ID: userID, Username: "tester"},
		text:   text,
		kv:     map[string]any{},
	}
}

func (f *fakeCtx) Sender() *tele.User  { return f.sender }
func (f *fakeCtx) Chat() *tele.Chat    { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeCtx) Update() tele.Update { return tele.Update{} }
func (f *fakeCtx) Text() string        { return f.text }
func (f *fakeCtx) Get(k string) any    { return f.kv[k] }
func (f *fakeCtx) Set(k string, v any) { f.kv[k] = v }

func (f *fakeCtx) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeCtx) lastSent() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeDirectory struct {
	roles      map[int64]string
	langs      map[int64]string
	usedPhones map[string]bool
	usedEmails map[string]bool
	usedNames  map[string]bool
	hits       []storage.UserSummary
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		roles:      map[int64]string{},
		langs:      map[int64]string{},
		usedPhones: map[string]bool{},
		usedEmails: map[string]bool{},
		usedNames:  map[string]bool{},
	}
}

func (d *fakeDirectory) PhoneInUse(_ context.Context, p string) (bool, error) {
	return d.usedPhones[p], nil
}
func (d *fakeDirectory) EmailInUse(_ context.Context, e string) (bool, error) {
	return d.usedEmails[e], nil
}
func (d *fakeDirectory) DisplayNameInUse(_ context.Context, n string) (bool, error) {
	return d.usedNames[strings.ToLower(n)], nil
}
func (d *fakeDirectory) RoleOf(_ context.Context, id int64) (string, error) {
	return d.roles[id], nil
}
func (d *fakeDirectory) LangOf(_ context.Context, id int64) (string, error) {
	return d.langs[id], nil
}
func (d *fakeDirectory) Search(_ context.Context, _ string) ([]storage.UserSummary, error) {
	return d.hits, nil
}

type fakeSeekers struct {
	created    []storage.Seeker
	createErr  error
	updated    map[string]string
	replaced   []storage.SeekerLanguage
	deleted    []int64
	byTelegram map[int64]storage.Seeker
}

func newFakeSeekers() *fakeSeekers {
	return &fakeSeekers{updated: map[string]string{}, byTelegram: map[int64]storage.Seeker{}}
}

func (s *fakeSeekers) Create(_ context.Context, sk storage.Seeker) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, sk)
	return nil
}
func (s *fakeSeekers) ByTelegramID(_ context.Context, id int64) (storage.Seeker, error) {
	sk, ok := s.byTelegram[id]
	if !ok {
		return storage.Seeker{}, storage.ErrNotFound
	}
	return sk, nil
}
func (s *fakeSeekers) UpdateField(_ context.Context, _ int64, field, value string) error {
	s.updated[field] = value
	return nil
}
func (s *fakeSeekers) ReplaceLanguages(_ context.Context, _ int64, langs []storage.SeekerLanguage) error {
	s.replaced = langs
	return nil
}
func (s *fakeSeekers) Delete(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type fakeEmployers struct {
	created []storage.Employer
	updated map[string]string
	byPhone map[string]storage.Employer
	hashes  map[string]string
	deleted []int64
	byTgID  map[int64]storage.Employer
}

func newFakeEmployers() *fakeEmployers {
	return &fakeEmployers{
		updated: map[string]string{},
		byPhone: map[string]storage.Employer{},
		hashes:  map[string]string{},
		byTgID:  map[int64]storage.Employer{},
	}
}

func (e *fakeEmployers) Create(_ context.Context, emp storage.Employer) error {
	e.created = append(e.created, emp)
	return nil
}
func (e *fakeEmployers) ByTelegramID(_ context.Context, id int64) (storage.Employer, error) {
	emp, ok := e.byTgID[id]
	if !ok {
		return storage.Employer{}, storage.ErrNotFound
	}
	return emp, nil
}
func (e *fakeEmployers) ByPhone(_ context.Context, phone string) (storage.Employer, error) {
	emp, ok := e.byPhone[phone]
	if !ok {
		return storage.Employer{}, storage.ErrNotFound
	}
	return emp, nil
}
func (e *fakeEmployers) UpdateField(_ context.Context, _ int64, field, value string) error {
	e.updated[field] = value
	return nil
}
func (e *fakeEmployers) SetPasswordHash(_ context.Context, phone, hash string) error {
	e.hashes[phone] = hash
	return nil
}
func (e *fakeEmployers) Delete(_ context.Context, id int64) error {
	e.deleted = append(e.deleted, id)
	return nil
}

type fakeVacancies struct {
	created []storage.Vacancy
	updated []storage.Vacancy
}

func (v *fakeVacancies) Create(_ context.Context, vac storage.Vacancy) (int64, error) {
	v.created = append(v.created, vac)
	return int64(len(v.created)), nil
}
func (v *fakeVacancies) Update(_ context.Context, vac storage.Vacancy) error {
	v.updated = append(v.updated, vac)
	return nil
}

type fakeBroadcast struct {
	count int
	sent  []string
}

func (b *fakeBroadcast) RecipientCount(_ context.Context) (int, error) { return b.count, nil }
func (b *fakeBroadcast) Broadcast(_ context.Context, text string) (string, int, error) {
	b.sent = append(b.sent, text)
	return "run-1", b.count, nil
}

type fakeSupport struct{ messages []string }

func (s *fakeSupport) Forward(_ context.Context, _ int64, _ string, text string) error {
	s.messages = append(s.messages, text)
	return nil
}

type fakeCodes struct {
	to    []int64
	codes []string
}

func (r *fakeCodes) Deliver(_ context.Context, id int64, code string) error {
	r.to = append(r.to, id)
	r.codes = append(r.codes, code)
	return nil
}

type env struct {
	flows     *Flows
	store     session.Store
	texts     *i18n.Bundle
	dir       *fakeDirectory
	seekers   *fakeSeekers
	employers *fakeEmployers
	vacancies *fakeVacancies
	broadcast *fakeBroadcast
	support   *fakeSupport
	codes     *fakeCodes
}

func newEnv(t *testing.T) *env {
	t.Helper()
	texts, err := i18n.Load("uz")
	if err != nil {
		t.Fatalf("load locales: %v", err)
	}
	e := &env{
		store:     session.NewMemoryStore(),
		texts:     texts,
		dir:       newFakeDirectory(),
		seekers:   newFakeSeekers(),
		employers: newFakeEmployers(),
		vacancies: &fakeVacancies{},
		broadcast: &fakeBroadcast{count: 3},
		support:   &fakeSupport{},
		codes:     &fakeCodes{},
	}
	e.flows = New(Options{
		Store:     e.store,
		Texts:     texts,
		Menus:     menu.New(texts),
		Directory: e.dir,
		Seekers:   e.seekers,
		Employers: e.employers,
		Vacancies: e.vacancies,
		Broadcast: e.broadcast,
		Support:   e.support,
		Recovery:  e.codes,
		AdminIDs:  []int64{900},
	})
	return e
}

// step feeds one message through the dispatcher and asserts it was
// claimed by the active conversation.
func (e *env) step(t *testing.T, userID int64, text string) *fakeCtx {
	t.Helper()
	c := newFakeCtx(userID, text)
	handled, err := e.flows.HandleMessage(c)
	if err != nil {
		t.Fatalf("step %q: %v", text, err)
	}
	if !handled {
		t.Fatalf("step %q: update not claimed", text)
	}
	return c
}

func (e *env) record(t *testing.T, userID int64) session.Record {
	t.Helper()
	rec, ok, err := e.store.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	if !ok {
		t.Fatalf("no session for %d", userID)
	}
	return rec
}

func (e *env) noSession(t *testing.T, userID int64) {
	t.Helper()
	_, ok, err := e.store.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	if ok {
		t.Fatalf("session for %d should be gone", userID)
	}
}

func (e *env) solveCaptcha(t *testing.T, userID int64) {
	t.Helper()
	rec := e.record(t, userID)
	e.step(t, userID, strconv.Itoa(rec.CaptchaAnswer))
}

func TestSeekerRegistrationHappyPath(t *testing.T) {
	e := newEnv(t)
	const uid = int64(11)

	c := newFakeCtx(uid, "")
	if err := e.flows.StartRegistration(c, session.RoleSeeker, "uz"); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.solveCaptcha(t, uid)

	e.step(t, uid, "901234567")
	e.step(t, uid, "Aziz@Example.com")
	e.step(t, uid, "Aziz Karimov")
	e.step(t, uid, e.texts.T("uz", "gender.male"))
	e.step(t, uid, "Toshkent shahri")
	e.step(t, uid, "Chilonzor")
	e.step(t, uid, "27")

	if len(e.seekers.created) != 1 {
		t.Fatalf("created %d seekers, want 1", len(e.seekers.created))
	}
	got := e.seekers.created[0]
	if got.Phone != "+998901234567" {
		t.Errorf("phone = %q", got.Phone)
	}
	if got.Email != "aziz@example.com" {
		t.Errorf("email = %q, want lowercased", got.Email)
	}
	if got.Gender != "male" || got.Region != "Toshkent shahri" || got.City != "Chilonzor" || got.Age != 27 {
		t.Errorf("unexpected seeker: %+v", got)
	}
	e.noSession(t, uid)
}

func TestEmployerRegistrationHashesPassword(t *testing.T) {
	e := newEnv(t)
	const uid = int64(12)

	if err := e.flows.StartRegistration(newFakeCtx(uid, ""), session.RoleEmployer, "ru"); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.solveCaptcha(t, uid)

	e.step(t, uid, "+998711112233")
	e.step(t, uid, "hr@acme.uz")
	e.step(t, uid, "Acme Tashkent")
	e.step(t, uid, "Toshkent shahri")
	e.step(t, uid, "Yunusobod")
	e.step(t, uid, "s3cret-pass")

	if len(e.employers.created) != 1 {
		t.Fatalf("created %d employers, want 1", len(e.employers.created))
	}
	got := e.employers.created[0]
	if got.PasswordHash == "" || got.PasswordHash == "s3cret-pass" {
		t.Errorf("password stored without hashing: %q", got.PasswordHash)
	}
	if got.CompanyName != "Acme Tashkent" {
		t.Errorf("company = %q", got.CompanyName)
	}
	e.noSession(t, uid)
}

func TestRegistrationDuplicateAtCommit(t *testing.T) {
	e := newEnv(t)
	const uid = int64(14)
	e.seekers.createErr = fmt.Errorf("create seeker: %w", storage.ErrDuplicate)

	if err := e.flows.StartRegistration(newFakeCtx(uid, ""), session.RoleSeeker, "uz"); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.solveCaptcha(t, uid)
	e.step(t, uid, "901234567")
	e.step(t, uid, "aziz@example.com")
	e.step(t, uid, "Aziz Karimov")
	e.step(t, uid, e.texts.T("uz", "gender.male"))
	e.step(t, uid, "Toshkent shahri")
	e.step(t, uid, "Chilonzor")

	// The account appeared through another channel between the
	// pre-checks and the insert; the user hears "already registered".
	c := e.step(t, uid, "27")
	if c.lastSent() != e.texts.T("uz", "err.already_registered") {
		t.Errorf("reply = %q, want already-registered message", c.lastSent())
	}
	if len(e.seekers.created) != 0 {
		t.Errorf("created %d seekers, want 0", len(e.seekers.created))
	}
	e.noSession(t, uid)
}

func TestRegistrationRejectsTakenPhone(t *testing.T) {
	e := newEnv(t)
	const uid = int64(13)
	e.dir.usedPhones["+998901234567"] = true

	if err := e.flows.StartRegistration(newFakeCtx(uid, ""), session.RoleSeeker, "uz"); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.solveCaptcha(t, uid)

	c := e.step(t, uid, "901234567")
	if c.lastSent() != e.texts.T("uz", "err.phone_taken") {
		t.Errorf("reply = %q, want phone taken", c.lastSent())
	}
	if rec := e.record(t, uid); rec.Step != session.StepPhone {
		t.Errorf("step advanced to %q on rejected input", rec.Step)
	}
}

func TestWrongCaptchaIssuesNewChallenge(t *testing.T) {
	e := newEnv(t)
	const uid = int64(14)

	if err := e.flows.StartRegistration(newFakeCtx(uid, ""), session.RoleSeeker, "uz"); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, "999")
	if rec := e.record(t, uid); rec.Step != session.StepCaptcha {
		t.Fatalf("step = %q, want captcha", rec.Step)
	}

	e.solveCaptcha(t, uid)
	if rec := e.record(t, uid); rec.Step != session.StepPhone {
		t.Errorf("step = %q after correct answer, want phone", rec.Step)
	}
}

func TestCancelMidFlowClearsSession(t *testing.T) {
	e := newEnv(t)
	const uid = int64(15)

	if err := e.flows.StartRegistration(newFakeCtx(uid, ""), session.RoleSeeker, "uz"); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.solveCaptcha(t, uid)

	c := e.step(t, uid, e.texts.T("ru", "btn.cancel"))
	if c.lastSent() != e.texts.T("uz", "msg.cancelled") {
		t.Errorf("reply = %q, want cancelled", c.lastSent())
	}
	e.noSession(t, uid)

	// Cancelling with nothing active just lands on a menu.
	if err := e.flows.CancelCurrentFlow(newFakeCtx(uid, "/cancel")); err != nil {
		t.Fatalf("idle cancel: %v", err)
	}
}

func TestPanicIsContainedAndStateCleared(t *testing.T) {
	e := newEnv(t)
	const uid = int64(16)

	// A registration record without its data bag makes the phone
	// handler dereference nil.
	broken := session.Record{
		Step: session.StepPhone,
		Flow: session.FlowRegistration,
		Role: session.RoleSeeker,
		Lang: "uz",
	}
	if err := e.store.Set(context.Background(), uid, broken); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := newFakeCtx(uid, "901234567")
	handled, err := e.flows.HandleMessage(c)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !handled {
		t.Fatal("panicking step must still count as handled")
	}
	if c.lastSent() != e.texts.T("uz", "err.apology") {
		t.Errorf("reply = %q, want apology", c.lastSent())
	}
	e.noSession(t, uid)
}

func TestStaleStepReportsExpiredSession(t *testing.T) {
	e := newEnv(t)
	c := newFakeCtx(17, "whatever@example.com")

	rec := session.Record{
		Step: session.StepPhone,
		Flow: session.FlowRegistration,
		Role: session.RoleSeeker,
		Lang: "uz",
	}
	next, err := e.flows.regEmail(context.Background(), c, rec)
	if err != nil {
		t.Fatalf("regEmail: %v", err)
	}
	if next != nil {
		t.Errorf("stale call must end the conversation")
	}
	if c.lastSent() != e.texts.T("uz", "err.session_expired") {
		t.Errorf("reply = %q, want session expired", c.lastSent())
	}
}

func TestUnclaimedUpdateFallsThrough(t *testing.T) {
	e := newEnv(t)
	const uid = int64(18)

	// Employer track has no gender step; a corrupted record must not
	// be claimed.
	bad := session.Record{
		Step:         session.StepGender,
		Flow:         session.FlowRegistration,
		Role:         session.RoleEmployer,
		Lang:         "uz",
		Registration: &session.RegistrationData{Fields: map[string]string{}},
	}
	if err := e.store.Set(context.Background(), uid, bad); err != nil {
		t.Fatalf("seed: %v", err)
	}

	handled, err := e.flows.HandleMessage(newFakeCtx(uid, "male"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if handled {
		t.Error("employer gender step must not be claimed")
	}
}

func TestLanguageSubFlowFromSettings(t *testing.T) {
	e := newEnv(t)
	const uid = int64(19)
	e.dir.roles[uid] = "seeker"
	e.dir.langs[uid] = "uz"
	e.seekers.byTelegram[uid] = storage.Seeker{
		TelegramID: uid,
		Languages:  []storage.SeekerLanguage{{Language: "English", Level: "fluent"}},
	}

	if err := e.flows.StartLanguagesEdit(newFakeCtx(uid, "")); err != nil {
		t.Fatalf("start: %v", err)
	}

	// A duplicate pick is rejected while state stays put.
	c := e.step(t, uid, "English")
	if c.lastSent() != e.texts.T("uz", "err.language_dup") {
		t.Errorf("reply = %q, want duplicate error", c.lastSent())
	}

	e.step(t, uid, "Русский")
	e.step(t, uid, e.texts.T("ru", "level.native"))

	e.step(t, uid, e.texts.T("uz", "btn.next"))
	if len(e.seekers.replaced) != 2 {
		t.Fatalf("replaced %d languages, want 2", len(e.seekers.replaced))
	}
	if e.seekers.replaced[1].Language != "Русский" || e.seekers.replaced[1].Level != "native" {
		t.Errorf("unexpected second language: %+v", e.seekers.replaced[1])
	}
	e.noSession(t, uid)
}

func TestLanguageNextRequiresOne(t *testing.T) {
	e := newEnv(t)
	const uid = int64(20)
	e.dir.roles[uid] = "seeker"
	e.seekers.byTelegram[uid] = storage.Seeker{TelegramID: uid}

	if err := e.flows.StartLanguagesEdit(newFakeCtx(uid, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	c := e.step(t, uid, e.texts.T("uz", "btn.next"))
	if c.lastSent() != e.texts.T("uz", "err.language_required") {
		t.Errorf("reply = %q, want at-least-one error", c.lastSent())
	}
	if rec := e.record(t, uid); rec.Step != session.StepLanguagePick {
		t.Errorf("step = %q, want language_pick", rec.Step)
	}
}

func TestProfileCompletionCommitsFields(t *testing.T) {
	e := newEnv(t)
	const uid = int64(21)
	e.dir.roles[uid] = "seeker"
	e.dir.langs[uid] = "en"

	if err := e.flows.StartProfile(newFakeCtx(uid, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, "Welder")
	e.step(t, uid, "Five years at a pipe plant")
	e.step(t, uid, "Vocational college")
	e.step(t, uid, "English")
	e.step(t, uid, e.texts.T("en", "level.intermediate"))
	e.step(t, uid, e.texts.T("en", "btn.next"))
	e.step(t, uid, "Reliable, looking for full-time work")

	if e.seekers.updated["profession"] != "Welder" {
		t.Errorf("profession = %q", e.seekers.updated["profession"])
	}
	if e.seekers.updated["about"] == "" {
		t.Error("about not committed")
	}
	if len(e.seekers.replaced) != 1 {
		t.Errorf("replaced %d languages, want 1", len(e.seekers.replaced))
	}
	e.noSession(t, uid)
}

func TestLanguageCancelFromProfileContinuesToAbout(t *testing.T) {
	e := newEnv(t)
	const uid = int64(24)
	e.dir.roles[uid] = "seeker"
	e.dir.langs[uid] = "en"

	if err := e.flows.StartProfile(newFakeCtx(uid, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, "Welder")
	e.step(t, uid, "Five years at a pipe plant")
	e.step(t, uid, "Vocational college")
	e.step(t, uid, "English")
	e.step(t, uid, e.texts.T("en", "level.fluent"))

	// A cancel inside the language sub-flow must not abort the
	// profile conversation; it closes the sub-flow and moves on.
	c := e.step(t, uid, "/cancel")
	rec := e.record(t, uid)
	if rec.Step != session.StepAbout {
		t.Fatalf("step after cancel = %q, want about", rec.Step)
	}
	if c.lastSent() != e.texts.T("en", "prompt.about") {
		t.Errorf("reply = %q, want about prompt", c.lastSent())
	}

	e.step(t, uid, "Reliable, looking for full-time work")
	if len(e.seekers.replaced) != 1 || e.seekers.replaced[0].Language != "English" {
		t.Errorf("languages collected before the cancel were lost: %+v", e.seekers.replaced)
	}
	e.noSession(t, uid)
}

func TestLanguageCancelAtLevelStepKeepsOnlyCompletedPairs(t *testing.T) {
	e := newEnv(t)
	const uid = int64(25)
	e.dir.roles[uid] = "seeker"
	e.dir.langs[uid] = "en"

	if err := e.flows.StartProfile(newFakeCtx(uid, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, "Welder")
	e.step(t, uid, "Five years at a pipe plant")
	e.step(t, uid, "Vocational college")
	e.step(t, uid, "English")

	// Cancel while a level pick is pending: the half-entered
	// language is dropped, the conversation still continues.
	e.step(t, uid, "/cancel")
	rec := e.record(t, uid)
	if rec.Step != session.StepAbout {
		t.Fatalf("step after cancel = %q, want about", rec.Step)
	}
	if rec.CurrentLanguage != "" {
		t.Errorf("pending language survived the cancel: %q", rec.CurrentLanguage)
	}

	e.step(t, uid, "Reliable, looking for full-time work")
	if len(e.seekers.replaced) != 0 {
		t.Errorf("replaced %d languages, want 0: %+v", len(e.seekers.replaced), e.seekers.replaced)
	}
	e.noSession(t, uid)
}

func TestVacancyCreation(t *testing.T) {
	e := newEnv(t)
	const uid = int64(22)
	e.dir.roles[uid] = "employer"
	e.dir.langs[uid] = "uz"
	e.employers.byTgID[uid] = storage.Employer{ID: 7, TelegramID: uid}

	if err := e.flows.StartVacancy(newFakeCtx(uid, ""), 0); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, "Payvandchi")
	e.step(t, uid, "Quvur zavodiga tajribali payvandchi kerak")
	e.step(t, uid, "8 mln so'm")
	e.step(t, uid, "Toshkent shahri")
	e.step(t, uid, "+998 90 123 45 67")
	e.step(t, uid, e.texts.T("uz", "btn.yes"))

	if len(e.vacancies.created) != 1 {
		t.Fatalf("created %d vacancies, want 1", len(e.vacancies.created))
	}
	v := e.vacancies.created[0]
	if v.EmployerID != 7 || v.Title != "Payvandchi" || !v.Active {
		t.Errorf("unexpected vacancy: %+v", v)
	}
	e.noSession(t, uid)
}

func TestVacancyDiscard(t *testing.T) {
	e := newEnv(t)
	const uid = int64(23)
	e.dir.roles[uid] = "employer"
	e.employers.byTgID[uid] = storage.Employer{ID: 8, TelegramID: uid}

	if err := e.flows.StartVacancy(newFakeCtx(uid, ""), 0); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, "Sotuvchi")
	e.step(t, uid, "Do'konga sotuvchi kerak, ish haqi kelishiladi")
	e.step(t, uid, "kelishilgan")
	e.step(t, uid, "Andijon")
	e.step(t, uid, "@acme_hr telegram")
	e.step(t, uid, e.texts.T("uz", "btn.no"))

	if len(e.vacancies.created) != 0 {
		t.Errorf("discarded vacancy was created")
	}
	e.noSession(t, uid)
}

func TestBroadcastFlowAdminOnly(t *testing.T) {
	e := newEnv(t)

	// Admin id from the options.
	if err := e.flows.StartBroadcast(newFakeCtx(900, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, 900, "Yangi imkoniyatlar ishga tushdi!")
	e.step(t, 900, e.texts.T("uz", "btn.yes"))
	if len(e.broadcast.sent) != 1 {
		t.Fatalf("broadcast not dispatched")
	}
	e.noSession(t, 900)

	// The same steps seeded for a non-admin id are never claimed.
	rec := session.Record{Step: session.StepAdminBroadcastText, Flow: session.FlowBroadcast, Lang: "uz"}
	if err := e.store.Set(context.Background(), 24, rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
	handled, err := e.flows.HandleMessage(newFakeCtx(24, "spam"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if handled {
		t.Error("admin step claimed for non-admin user")
	}
}

func TestBroadcastAbort(t *testing.T) {
	e := newEnv(t)
	if err := e.flows.StartBroadcast(newFakeCtx(900, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, 900, "Test xabari, yubormaymiz")
	c := e.step(t, 900, e.texts.T("uz", "btn.no"))
	if len(e.broadcast.sent) != 0 {
		t.Error("aborted broadcast was dispatched")
	}
	if c.lastSent() != e.texts.T("uz", "msg.broadcast_aborted") {
		t.Errorf("reply = %q, want aborted", c.lastSent())
	}
}

func TestUserSearchIsOneShot(t *testing.T) {
	e := newEnv(t)
	e.dir.hits = []storage.UserSummary{
		{Kind: "seeker", TelegramID: 42, Name: "Aziz Karimov", Phone: "+998901234567", Email: "aziz@example.com"},
	}
	if err := e.flows.StartUserSearch(newFakeCtx(900, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	c := e.step(t, 900, "aziz")
	if !strings.Contains(c.lastSent(), "Aziz Karimov") {
		t.Errorf("result missing hit: %q", c.lastSent())
	}
	e.noSession(t, 900)
}

func TestRecoveryFlow(t *testing.T) {
	e := newEnv(t)
	const uid = int64(25)
	e.employers.byPhone["+998711112233"] = storage.Employer{ID: 3, TelegramID: 777, Phone: "+998711112233"}

	if err := e.flows.StartRecovery(newFakeCtx(uid, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, "711112233")
	if len(e.codes.codes) != 1 || e.codes.to[0] != 777 {
		t.Fatalf("code not delivered to account owner: %+v", e.codes)
	}

	c := e.step(t, uid, "000000x")
	if c.lastSent() != e.texts.T("uz", "err.recovery_code_mismatch") {
		t.Errorf("reply = %q, want mismatch", c.lastSent())
	}

	e.step(t, uid, e.codes.codes[0])
	e.step(t, uid, "brand-new-pass")
	if e.employers.hashes["+998711112233"] == "" {
		t.Error("password hash not stored")
	}
	e.noSession(t, uid)
}

func TestDeleteAccountConfirmAndDecline(t *testing.T) {
	e := newEnv(t)
	const uid = int64(26)
	e.dir.roles[uid] = "seeker"

	if err := e.flows.StartDelete(newFakeCtx(uid, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, e.texts.T("uz", "btn.no"))
	if len(e.seekers.deleted) != 0 {
		t.Error("declined delete still erased the account")
	}
	e.noSession(t, uid)

	if err := e.flows.StartDelete(newFakeCtx(uid, "")); err != nil {
		t.Fatalf("restart: %v", err)
	}
	e.step(t, uid, e.texts.T("uz", "btn.yes"))
	if len(e.seekers.deleted) != 1 || e.seekers.deleted[0] != uid {
		t.Errorf("deleted = %v, want [%d]", e.seekers.deleted, uid)
	}
}

func TestSettingsEditPhone(t *testing.T) {
	e := newEnv(t)
	const uid = int64(27)
	e.dir.roles[uid] = "seeker"
	e.dir.langs[uid] = "uz"

	if err := e.flows.StartSettingsEdit(newFakeCtx(uid, ""), FieldPhone); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, "935554433")
	if e.seekers.updated["phone"] != "+998935554433" {
		t.Errorf("phone = %q", e.seekers.updated["phone"])
	}
	e.noSession(t, uid)
}

func TestSupportForwarding(t *testing.T) {
	e := newEnv(t)
	const uid = int64(28)

	if err := e.flows.StartSupport(newFakeCtx(uid, "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.step(t, uid, "Mening profilim ochilmayapti")
	if len(e.support.messages) != 1 {
		t.Fatal("support message not forwarded")
	}
	e.noSession(t, uid)
}

func TestAlreadyRegisteredBlocksRegistration(t *testing.T) {
	e := newEnv(t)
	const uid = int64(29)
	e.dir.roles[uid] = "seeker"

	c := newFakeCtx(uid, "")
	if err := e.flows.StartRegistration(c, session.RoleSeeker, "uz"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.lastSent() != e.texts.T("uz", "err.already_registered") {
		t.Errorf("reply = %q, want already registered", c.lastSent())
	}
	e.noSession(t, uid)
}
