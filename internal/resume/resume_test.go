package resume

import (
	"strings"
	"testing"

	"ishtopar/internal/storage"
)

func TestRenderProducesPDF(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	seeker := storage.Seeker{
		FullName:   "Aziz Karimov",
		Phone:      "+998901234567",
		Email:      "aziz@example.com",
		Region:     "Toshkent",
		City:       "Chilonzor",
		Age:        27,
		Gender:     "male",
		Profession: "Payvandchi",
		Experience: "Quvur zavodida besh yil",
		Education:  "Kasb-hunar kolleji",
		About:      "Mas'uliyatli, to'liq stavkada ish qidiryapman",
		Languages: []storage.SeekerLanguage{
			{Language: "O'zbek", Level: "native"},
			{Language: "Русский", Level: "fluent"},
		},
	}

	data, name, err := g.Render(seeker)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(string(data[:5]), "%PDF-") {
		t.Errorf("output does not start with a PDF header")
	}
	if !strings.HasPrefix(name, "resume-") || !strings.HasSuffix(name, ".pdf") {
		t.Errorf("file name = %q", name)
	}

	// File names must not collide across renders.
	_, name2, err := g.Render(seeker)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if name == name2 {
		t.Error("duplicate file names")
	}
}

func TestTranslatorMapsCyrillic(t *testing.T) {
	g, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// Seven runes become seven cp1251 bytes; no rune may fall
	// through as multi-byte UTF-8.
	if got := g.translate("Русский"); len(got) != 7 {
		t.Errorf("translated %q to %d bytes, want 7", "Русский", len(got))
	}
}
