package i18n

import "testing"

func TestLoadAndLookup(t *testing.T) {
	b, err := Load("uz")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := b.T("ru", "btn.cancel"); got != "❌ Отмена" {
		t.Fatalf("ru cancel = %q", got)
	}
	// Unknown language falls back to the default locale.
	if got := b.T("de", "btn.cancel"); got != "❌ Bekor qilish" {
		t.Fatalf("fallback cancel = %q", got)
	}
	// Unknown key falls back to the key itself.
	if got := b.T("uz", "no.such.key"); got != "no.such.key" {
		t.Fatalf("missing key = %q", got)
	}
}

func TestLoadRejectsUnknownDefault(t *testing.T) {
	if _, err := Load("fr"); err == nil {
		t.Fatal("expected error for unknown default language")
	}
}

func TestAllCoversEveryLanguage(t *testing.T) {
	b, err := Load("uz")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	all := b.All("btn.cancel")
	if len(all) != len(b.Langs()) {
		t.Fatalf("All returned %d variants for %d languages", len(all), len(b.Langs()))
	}
}

func TestMatchesIgnoresCaseAndSpace(t *testing.T) {
	b, err := Load("uz")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := []string{"❌ Отмена", "  ❌ отмена  ", "❌ BEKOR QILISH"}
	for _, text := range cases {
		if !b.Matches(text, "btn.cancel") {
			t.Errorf("Matches(%q, btn.cancel) = false", text)
		}
	}
	if b.Matches("hello", "btn.cancel") {
		t.Error("Matches matched unrelated text")
	}
}

func TestLocaleKeySetsAreAligned(t *testing.T) {
	b, err := Load("uz")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	base := b.messages["uz"]
	for _, lang := range b.Langs() {
		table := b.messages[lang]
		for key := range base {
			if _, ok := table[key]; !ok {
				t.Errorf("locale %s is missing key %s", lang, key)
			}
		}
		for key := range table {
			if _, ok := base[key]; !ok {
				t.Errorf("locale %s has extra key %s", lang, key)
			}
		}
	}
}
