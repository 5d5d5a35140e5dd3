package session

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, err := store.Get(ctx, 1); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	rec := Record{
		Step: StepPhone,
		Role: RoleSeeker,
		Flow: FlowRegistration,
		Registration: &RegistrationData{
			Fields: map[string]string{"phone": "+998901234567"},
		},
	}
	if err := store.Set(ctx, 1, rec); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := store.Get(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("get after set: ok=%v err=%v", ok, err)
	}
	if got.Step != StepPhone || got.Role != RoleSeeker || got.Flow != FlowRegistration {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Registration.Fields["phone"] = "tampered"
	again, _, _ := store.Get(ctx, 1)
	if again.Registration.Fields["phone"] != "+998901234567" {
		t.Fatal("store returned a shared reference")
	}

	if err := store.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatal("record survived Clear")
	}
}

func TestRecordCloneIsDeep(t *testing.T) {
	rec := Record{
		Step:          StepLanguagePick,
		Flow:          FlowProfile,
		TempLanguages: []LanguageSkill{{Language: "uz", Level: "native"}},
		Profile:       &ProfileData{Fields: map[string]string{"profession": "welder"}},
	}
	cp := rec.Clone()
	cp.TempLanguages[0].Language = "ru"
	cp.Profile.Fields["profession"] = "driver"

	if rec.TempLanguages[0].Language != "uz" {
		t.Fatal("clone shares TempLanguages backing array")
	}
	if rec.Profile.Fields["profession"] != "welder" {
		t.Fatal("clone shares profile map")
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	rec := Record{
		Step:          StepVacancySalary,
		Role:          RoleEmployer,
		Flow:          FlowVacancy,
		Lang:          "ru",
		CaptchaAnswer: 7,
		Vacancy: &VacancyData{
			VacancyID: 42,
			Fields:    map[string]string{"vacancy_title": "Kassir"},
		},
		TempLanguages: []LanguageSkill{{Language: "en", Level: "b2"}},
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Record
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(rec, back) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", rec, back)
	}
}

func TestStepFamilies(t *testing.T) {
	cases := []struct {
		step                               Step
		profile, vacancy, admin, regfamily bool
	}{
		{StepPhone, false, false, false, true},
		{StepCaptcha, false, false, false, true},
		{StepProfession, true, false, false, false},
		{StepLanguageLevel, true, false, false, false},
		{StepVacancyTitle, false, true, false, false},
		{StepVacancyConfirm, false, true, false, false},
		{StepAdminBroadcastConfirm, false, false, true, false},
		{StepAdminUserSearch, false, false, true, false},
		{StepRecoveryPhone, false, false, false, false},
		{StepSupportMessage, false, false, false, false},
	}
	for _, tc := range cases {
		if got := IsProfileStep(tc.step); got != tc.profile {
			t.Errorf("IsProfileStep(%s) = %v", tc.step, got)
		}
		if got := IsVacancyStep(tc.step); got != tc.vacancy {
			t.Errorf("IsVacancyStep(%s) = %v", tc.step, got)
		}
		if got := IsAdminStep(tc.step); got != tc.admin {
			t.Errorf("IsAdminStep(%s) = %v", tc.step, got)
		}
		if got := IsRegistrationStep(tc.step); got != tc.regfamily {
			t.Errorf("IsRegistrationStep(%s) = %v", tc.step, got)
		}
	}
}
