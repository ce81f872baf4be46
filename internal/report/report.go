package report

import (
	"errors"
	"fmt"
	"strings"

	"ai-vetting/backend/internal/checklist"
	"ai-vetting/backend/internal/scoring"
)

const (
	// Title heads every exported report.
	Title = "AI Tool Vetting Report"
	// NotAnswered stands in for questions without a response.
	NotAnswered = "N/A"
)

var (
	ErrUnknownFormat        = errors.New("unknown report format")
	ErrUnsupportedCharacter = errors.New("character not supported by pdf font")
)

// Item is one question with its recorded answer.
type Item struct {
	Question string `json:"question"`
	Response string `json:"response"`
	Note     string `json:"note"`
}

// Section groups the items of one category.
type Section struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// Report is the content shared by every output encoding.
type Report struct {
	Title    string       `json:"title"`
	Risk     scoring.Tier `json:"risk"`
	Sections []Section    `json:"sections"`
}

// Build assembles the report content in catalog order.
func Build(catalog *checklist.Catalog, responses map[checklist.QuestionID]checklist.Response, notes map[checklist.QuestionID]string, risk scoring.Tier) Report {
	categories := catalog.Categories()
	out := Report{
		Title:    Title,
		Risk:     risk,
		Sections: make([]Section, 0, len(categories)),
	}
	for _, category := range categories {
		section := Section{Category: category.Name, Items: make([]Item, 0, len(category.Questions))}
		for _, q := range category.Questions {
			resp := NotAnswered
			if r, ok := responses[q.ID]; ok && r.Valid() {
				resp = r.String()
			}
			section.Items = append(section.Items, Item{
				Question: q.Prompt,
				Response: resp,
				Note:     notes[q.ID],
			})
		}
		out.Sections = append(out.Sections, section)
	}
	return out
}

// FromSession builds the report for a session, computing its risk tier.
func FromSession(s *checklist.Session) Report {
	responses := s.Responses()
	return Build(s.Catalog(), responses, s.Notes(), scoring.ComputeRisk(responses))
}

// LineKind tells renderers how to lay a line out.
type LineKind int

const (
	LineTitle LineKind = iota
	LineRisk
	LineCategory
	LineQuestion
	LineAnswer
	LineBlank
)

// Line is one logical line of the report.
type Line struct {
	Kind LineKind
	Text string
}

// Lines flattens the report into the ordered lines every encoding renders.
func (r Report) Lines() []Line {
	lines := []Line{
		{Kind: LineTitle, Text: r.Title},
		{Kind: LineRisk, Text: "Overall Risk Level: " + string(r.Risk)},
		{Kind: LineBlank},
	}
	for _, section := range r.Sections {
		lines = append(lines, Line{Kind: LineCategory, Text: section.Category})
		for _, item := range section.Items {
			lines = append(lines,
				Line{Kind: LineQuestion, Text: "Q: " + item.Question},
				Line{Kind: LineAnswer, Text: fmt.Sprintf("Response: %s | Notes: %s", item.Response, item.Note)},
			)
		}
		lines = append(lines, Line{Kind: LineBlank})
	}
	return lines
}

// Text renders the plain-text encoding.
func (r Report) Text() string {
	var b strings.Builder
	for _, line := range r.Lines() {
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
