package session

// All step tokens live in this file so uniqueness across flows stays
// reviewable in one place.

// Shared registration field steps. The same names are deliberately
// reused by both the seeker and employer tracks; Role is the second
// dispatch key for them (and Flow distinguishes settings edits).
const (
	StepCaptcha  Step = "captcha"
	StepPhone    Step = "phone"
	StepEmail    Step = "email"
	StepFullName Step = "full_name"
	StepGender   Step = "gender"
	StepRegion   Step = "region"
	StepCity     Step = "city_selection"
	StepAge      Step = "age"

	StepCompanyName Step = "company_name"
	StepPassword    Step = "password"
)

// Profile-completion family (fixed enumerated set, seeker only).
const (
	StepProfession    Step = "profession"
	StepExperience    Step = "experience"
	StepEducation     Step = "education"
	StepLanguagePick  Step = "language_pick"
	StepLanguageLevel Step = "language_level"
	StepAbout         Step = "about"
)

// Vacancy family shares the vacancy_ structural prefix.
const (
	VacancyStepPrefix Step = "vacancy_"

	StepVacancyTitle       Step = "vacancy_title"
	StepVacancyDescription Step = "vacancy_description"
	StepVacancySalary      Step = "vacancy_salary"
	StepVacancyRegion      Step = "vacancy_region"
	StepVacancyContact     Step = "vacancy_contact"
	StepVacancyConfirm     Step = "vacancy_confirm"
)

// Admin family shares the admin_ structural prefix and is reachable
// only for configured admin ids.
const (
	AdminStepPrefix Step = "admin_"

	StepAdminBroadcastText    Step = "admin_broadcast_text"
	StepAdminBroadcastConfirm Step = "admin_broadcast_confirm"
	StepAdminUserSearch       Step = "admin_user_search"
)

// Remaining single-flow steps dispatched through the generic table.
const (
	StepRecoveryPhone    Step = "recovery_phone"
	StepRecoveryCode     Step = "recovery_code"
	StepRecoveryPassword Step = "recovery_password"

	StepSupportMessage Step = "support_message"
	StepDeleteConfirm  Step = "delete_confirm"
)

var profileSteps = map[Step]struct{}{
	StepProfession:    {},
	StepExperience:    {},
	StepEducation:     {},
	StepLanguagePick:  {},
	StepLanguageLevel: {},
	StepAbout:         {},
}

// IsProfileStep reports membership in the profile-completion family.
func IsProfileStep(s Step) bool {
	_, ok := profileSteps[s]
	return ok
}

// IsVacancyStep reports membership in the vacancy family by prefix.
func IsVacancyStep(s Step) bool {
	return len(s) > len(VacancyStepPrefix) && s[:len(VacancyStepPrefix)] == VacancyStepPrefix
}

// IsAdminStep reports membership in the admin family by prefix.
func IsAdminStep(s Step) bool {
	return len(s) > len(AdminStepPrefix) && s[:len(AdminStepPrefix)] == AdminStepPrefix
}

var registrationSteps = map[Step]struct{}{
	StepCaptcha:     {},
	StepPhone:       {},
	StepEmail:       {},
	StepFullName:    {},
	StepGender:      {},
	StepRegion:      {},
	StepCity:        {},
	StepAge:         {},
	StepCompanyName: {},
	StepPassword:    {},
}

// IsRegistrationStep reports whether s is one of the field-collection
// steps shared by the two registration tracks.
func IsRegistrationStep(s Step) bool {
	_, ok := registrationSteps[s]
	return ok
}
