// Package resume renders a seeker's profile as a PDF document.
package resume

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"ishtopar/internal/storage"
)

// cp1251 covers Cyrillic input alongside Latin Uzbek. The code page
// map ships inside the binary so rendering does not depend on an fpdf
// font directory being present at runtime.
//
//go:embed cp1251.map
var cp1251Map []byte

// Generator renders resumes. Stateless and safe for concurrent use.
type Generator struct {
	translate func(string) string
}

// New returns a resume generator.
func New() (*Generator, error) {
	tr, err := fpdf.UnicodeTranslator(bytes.NewReader(cp1251Map))
	if err != nil {
		return nil, fmt.Errorf("load cp1251 map: %w", err)
	}
	return &Generator{translate: tr}, nil
}

// Render produces the PDF bytes and a unique file name for the given
// seeker profile.
func (g *Generator) Render(s storage.Seeker) ([]byte, string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := g.translate
	pdf.SetTitle(tr(s.FullName), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, tr(s.FullName), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(90, 90, 90)
	contact := fmt.Sprintf("%s · %s · %s, %s", s.Phone, s.Email, s.Region, s.City)
	pdf.CellFormat(0, 7, tr(contact), "", 1, "L", false, 0, "")
	meta := fmt.Sprintf("%d", s.Age)
	if s.Gender != "" {
		meta = fmt.Sprintf("%s · %d", s.Gender, s.Age)
	}
	pdf.CellFormat(0, 7, tr(meta), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	section := func(title, body string) {
		if body == "" {
			return
		}
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(body), "", "L", false)
		pdf.Ln(3)
	}

	section("Profession", s.Profession)
	section("Experience", s.Experience)
	section("Education", s.Education)
	if len(s.Languages) > 0 {
		var parts []string
		for _, l := range s.Languages {
			parts = append(parts, fmt.Sprintf("%s (%s)", l.Language, l.Level))
		}
		section("Languages", strings.Join(parts, ", "))
	}
	section("About", s.About)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render resume: %w", err)
	}
	name := fmt.Sprintf("resume-%s.pdf", uuid.NewString())
	return buf.Bytes(), name, nil
}
