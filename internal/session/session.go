// Package session holds the per-user conversation state shared by all
// flows: which step the user is on, which flow owns that step, and the
// data accumulated so far. A record exists only while a flow is in
// progress and is deleted on completion, cancellation, or failure.
package session

import "context"

// Step identifies the current position within a flow. Step values are
// global to the dispatch table: no two unrelated flows may reuse the
// same name with different meanings. Shared names (phone, email,
// region, city_selection) are disambiguated by Flow and Role.
type Step string

// Role selects which registration track applies to a user.
type Role string

const (
	RoleSeeker   Role = "seeker"
	RoleEmployer Role = "employer"
	RoleNone     Role = ""
)

// Flow tags the family that owns the active conversation. It is a
// mandatory discriminant on every record so that two flows reusing a
// field step name can never claim the same message.
type Flow string

const (
	FlowNone         Flow = ""
	FlowRegistration Flow = "registration"
	FlowProfile      Flow = "profile"
	FlowSettings     Flow = "settings"
	FlowVacancy      Flow = "vacancy"
	FlowBroadcast    Flow = "broadcast"
	FlowAdmin        Flow = "admin"
	FlowRecovery     Flow = "recovery"
	FlowSupport      Flow = "support"
	FlowDelete       Flow = "delete"
)

// Source marks how the language sub-flow was entered; it decides where
// completion and cancellation return to.
type Source string

const (
	SourceRegistration Source = "registration"
	SourceSettings     Source = "settings"
)

// LanguageSkill is one accumulated item of the language sub-flow.
type LanguageSkill struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

// RegistrationData accumulates field values during seeker or employer
// registration. Keys are the step names that collected them.
type RegistrationData struct {
	Fields map[string]string `json:"fields"`
}

// ProfileData accumulates seeker profile-completion answers.
type ProfileData struct {
	Fields map[string]string `json:"fields"`
}

// SettingsEditData tracks a single in-progress settings edit.
type SettingsEditData struct {
	// Field is the persisted column being edited.
	Field string `json:"field"`
}

// VacancyData accumulates vacancy creation or edit input.
type VacancyData struct {
	// VacancyID is non-zero when editing an existing vacancy.
	VacancyID int64             `json:"vacancy_id,omitempty"`
	Fields    map[string]string `json:"fields"`
}

// BroadcastData holds the composed broadcast text awaiting confirmation.
type BroadcastData struct {
	Text string `json:"text"`
}

// RecoveryData tracks employer password recovery progress.
type RecoveryData struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// Record is the full per-user session state. Callers read-modify-write
// the whole record; the store offers no partial update primitive.
type Record struct {
	Step Step `json:"step"`
	Role Role `json:"role"`
	Flow Flow `json:"flow"`

	// Source is set while the language sub-flow is active.
	Source Source `json:"source,omitempty"`
	// Lang is the interface language chosen for this conversation.
	Lang string `json:"lang,omitempty"`

	CaptchaAnswer int `json:"captcha_answer,omitempty"`
	// NextStep is where the captcha step advances on success.
	NextStep Step `json:"next_step,omitempty"`

	// CurrentLanguage is the pick awaiting a proficiency level in the
	// language sub-flow.
	CurrentLanguage string `json:"current_language,omitempty"`

	Registration *RegistrationData `json:"registration,omitempty"`
	Profile      *ProfileData      `json:"profile,omitempty"`
	SettingsEdit *SettingsEditData `json:"settings_edit,omitempty"`
	Vacancy      *VacancyData      `json:"vacancy,omitempty"`
	Broadcast    *BroadcastData    `json:"broadcast,omitempty"`
	Recovery     *RecoveryData     `json:"recovery,omitempty"`

	// TempLanguages accumulates picks of the language sub-flow.
	TempLanguages []LanguageSkill `json:"temp_languages,omitempty"`
}

// Clone returns a deep copy so handlers can mutate freely and hand the
// result back to the dispatcher for a single write.
func (r Record) Clone() Record {
	out := r
	if r.Registration != nil {
		out.Registration = &RegistrationData{Fields: cloneMap(r.Registration.Fields)}
	}
	if r.Profile != nil {
		out.Profile = &ProfileData{Fields: cloneMap(r.Profile.Fields)}
	}
	if r.SettingsEdit != nil {
		cp := *r.SettingsEdit
		out.SettingsEdit = &cp
	}
	if r.Vacancy != nil {
		out.Vacancy = &VacancyData{VacancyID: r.Vacancy.VacancyID, Fields: cloneMap(r.Vacancy.Fields)}
	}
	if r.Broadcast != nil {
		cp := *r.Broadcast
		out.Broadcast = &cp
	}
	if r.Recovery != nil {
		cp := *r.Recovery
		out.Recovery = &cp
	}
	if r.TempLanguages != nil {
		out.TempLanguages = append([]LanguageSkill(nil), r.TempLanguages...)
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// HasLanguage reports whether the sub-flow already collected lang.
func (r Record) HasLanguage(lang string) bool {
	for _, ls := range r.TempLanguages {
		if ls.Language == lang {
			return true
		}
	}
	return false
}

// Store persists session records keyed by Telegram user id.
// Last-write-wins per user; the dispatcher serializes per-user access.
type Store interface {
	// Get returns the record and true when a flow is in progress.
	Get(ctx context.Context, userID int64) (Record, bool, error)
	// Set replaces the full record.
	Set(ctx context.Context, userID int64, rec Record) error
	// Clear removes the record entirely.
	Clear(ctx context.Context, userID int64) error
}
