package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-vetting/backend/internal/checklist"
	"ai-vetting/backend/internal/scoring"
)

func smallCatalog(t *testing.T) *checklist.Catalog {
	t.Helper()
	c, err := checklist.NewCatalog([]checklist.Entry{
		{ID: "privacy", Name: "Privacy Terms", Prompts: []string{"Is retention stated?", "Can data be erased?"}},
		{ID: "hosting", Name: "Hosting", Prompts: []string{"Is the region disclosed?"}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestBuildFallbacks(t *testing.T) {
	c := smallCatalog(t)
	responses := map[checklist.QuestionID]checklist.Response{
		{Category: "privacy", Index: 0}: checklist.No,
	}
	notes := map[checklist.QuestionID]string{
		{Category: "privacy", Index: 0}: "only 30 days",
	}

	r := Build(c, responses, notes, scoring.ComputeRisk(responses))

	if r.Title != Title || r.Risk != scoring.TierLow {
		t.Fatalf("unexpected header %q %q", r.Title, r.Risk)
	}
	if len(r.Sections) != 2 || r.Sections[0].Category != "Privacy Terms" || r.Sections[1].Category != "Hosting" {
		t.Fatalf("unexpected sections %+v", r.Sections)
	}
	first := r.Sections[0].Items[0]
	if first.Response != "No" || first.Note != "only 30 days" {
		t.Fatalf("unexpected first item %+v", first)
	}
	for _, item := range []Item{r.Sections[0].Items[1], r.Sections[1].Items[0]} {
		if item.Response != NotAnswered || item.Note != "" {
			t.Fatalf("expected fallback for %+v", item)
		}
	}
}

func TestTextLayout(t *testing.T) {
	c := smallCatalog(t)
	s := checklist.NewSession(c)
	_ = s.Record(checklist.QuestionID{Category: "privacy", Index: 0}, checklist.Yes)
	_ = s.SetNote(checklist.QuestionID{Category: "privacy", Index: 0}, "see ToS section 4")
	_ = s.Record(checklist.QuestionID{Category: "hosting", Index: 0}, checklist.Unclear)

	expected := "AI Tool Vetting Report\n" +
		"Overall Risk Level: Low\n" +
		"\n" +
		"Privacy Terms\n" +
		"Q: Is retention stated?\n" +
		"Response: Yes | Notes: see ToS section 4\n" +
		"Q: Can data be erased?\n" +
		"Response: N/A | Notes: \n" +
		"\n" +
		"Hosting\n" +
		"Q: Is the region disclosed?\n" +
		"Response: Unclear | Notes: \n" +
		"\n"

	if got := FromSession(s).Text(); got != expected {
		t.Fatalf("unexpected text:\n%s", got)
	}
}

func TestDefaultCatalogReportCoversEveryQuestion(t *testing.T) {
	s := checklist.NewSession(checklist.Default())
	text := FromSession(s).Text()
	for _, category := range checklist.Default().Categories() {
		if !strings.Contains(text, category.Name+"\n") {
			t.Fatalf("missing category %q", category.Name)
		}
		for _, q := range category.Questions {
			if !strings.Contains(text, "Q: "+q.Prompt+"\nResponse: N/A | Notes: \n") {
				t.Fatalf("missing question %q", q.Prompt)
			}
		}
	}
}

func TestPDFContainsSameLines(t *testing.T) {
	c := smallCatalog(t)
	s := checklist.NewSession(c)
	_ = s.Record(checklist.QuestionID{Category: "privacy", Index: 0}, checklist.No)
	_ = s.Record(checklist.QuestionID{Category: "privacy", Index: 1}, checklist.Unclear)
	_ = s.Record(checklist.QuestionID{Category: "hosting", Index: 0}, checklist.No)
	_ = s.SetNote(checklist.QuestionID{Category: "hosting", Index: 0}, "vendor did not answer")
	r := FromSession(s)
	if r.Risk != scoring.TierMedium {
		t.Fatalf("expected Medium got %s", r.Risk)
	}

	data, err := r.PDF(WithCompression(false), WithCreationDate(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", data[:8])
	}
	for _, line := range r.Lines() {
		if line.Kind == LineBlank {
			continue
		}
		needle := strings.TrimSpace(line.Text)
		if !bytes.Contains(data, []byte(needle)) {
			t.Fatalf("pdf missing line %q", needle)
		}
		if !strings.Contains(r.Text(), line.Text+"\n") {
			t.Fatalf("text missing line %q", line.Text)
		}
	}
}

func TestPDFDefaultCatalog(t *testing.T) {
	s := checklist.NewSession(checklist.Default())
	for _, category := range checklist.Default().Categories() {
		for _, q := range category.Questions {
			_ = s.Record(q.ID, checklist.Unclear)
			_ = s.SetNote(q.ID, strings.Repeat("long evidence note ", 20))
		}
	}
	data, err := FromSession(s).PDF()
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatal("not a pdf")
	}
}

func TestPDFUnsupportedCharacter(t *testing.T) {
	c := smallCatalog(t)
	s := checklist.NewSession(c)
	id := checklist.QuestionID{Category: "hosting", Index: 0}
	_ = s.Record(id, checklist.Yes)
	_ = s.SetNote(id, "服务器位于新加坡")
	r := FromSession(s)

	data, err := r.PDF()
	if !errors.Is(err, ErrUnsupportedCharacter) {
		t.Fatalf("expected ErrUnsupportedCharacter got %v", err)
	}
	if data != nil {
		t.Fatal("expected no partial output")
	}
	if !strings.Contains(r.Text(), "服务器位于新加坡") {
		t.Fatal("text export should keep the note")
	}
	if s.Note(id) != "服务器位于新加坡" {
		t.Fatal("session must be untouched by export failure")
	}
}

func TestPDFAcceptsWesternAccents(t *testing.T) {
	c := smallCatalog(t)
	s := checklist.NewSession(c)
	_ = s.SetNote(checklist.QuestionID{Category: "privacy", Index: 0}, "Société Générale – “reviewed” €")
	if _, err := FromSession(s).PDF(); err != nil {
		t.Fatalf("pdf: %v", err)
	}
}

func TestExport(t *testing.T) {
	r := FromSession(checklist.NewSession(smallCatalog(t)))

	tests := []struct {
		format    Format
		filename  string
		mediaType string
	}{
		{FormatText, "ai_vetting_report.txt", "text/plain"},
		{FormatPDF, "ai_vetting_report.pdf", "application/pdf"},
	}
	for _, tc := range tests {
		t.Run(string(tc.format), func(t *testing.T) {
			artifact, err := Export(r, tc.format)
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			if artifact.Filename != tc.filename || artifact.MediaType != tc.mediaType || len(artifact.Data) == 0 {
				t.Fatalf("unexpected artifact %s %s %d", artifact.Filename, artifact.MediaType, len(artifact.Data))
			}
		})
	}

	if _, err := Export(r, Format("docx")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"txt": FormatText, "Text": FormatText, " PDF ": FormatPDF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q err %v", in, got, err)
		}
	}
	if _, err := ParseFormat("html"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat got %v", err)
	}
}
