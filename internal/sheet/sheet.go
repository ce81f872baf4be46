package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ai-vetting/backend/internal/checklist"
)

// Header is the column layout written by Write and understood by Read.
var Header = []string{"category", "index", "question", "response", "note"}

// Stats summarizes a parsed answer sheet.
type Stats struct {
	Rows       int `json:"rows"`
	Duplicates int `json:"duplicate_rows"`
}

type columns struct {
	category, index, response, note int
}

// Read parses an answer sheet into a new session. Any invalid row rejects
// the whole sheet. The last row for a question replaces earlier ones
// entirely, so blank cells in it clear the response or note.
func Read(r io.Reader, catalog *checklist.Catalog) (*checklist.Session, Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		stats           Stats
		cols            = columns{category: 0, index: 1, response: 3, note: 4}
		headerProcessed bool
		latest          = make(map[checklist.QuestionID]answerRow)
		order           []checklist.QuestionID
		row             int
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Stats{}, fmt.Errorf("read csv: %w", err)
		}
		row++
		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}
		if !headerProcessed {
			headerProcessed = true
			if detected, ok := detectColumns(record); ok {
				cols = detected
				continue
			}
		}

		id, resp, note, err := parseRow(record, cols)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("row %d: %w", row, err)
		}
		if !catalog.Contains(id) {
			return nil, Stats{}, fmt.Errorf("row %d: %w: %s", row, checklist.ErrUnknownQuestion, id)
		}
		stats.Rows++
		if _, dup := latest[id]; dup {
			stats.Duplicates++
		} else {
			order = append(order, id)
		}
		latest[id] = answerRow{row: row, response: resp, note: note}
	}

	session := checklist.NewSession(catalog)
	for _, id := range order {
		a := latest[id]
		if a.response.Valid() {
			if err := session.Record(id, a.response); err != nil {
				return nil, Stats{}, fmt.Errorf("row %d: %w", a.row, err)
			}
		}
		if a.note != "" {
			if err := session.SetNote(id, a.note); err != nil {
				return nil, Stats{}, fmt.Errorf("row %d: %w", a.row, err)
			}
		}
	}
	return session, stats, nil
}

type answerRow struct {
	row      int
	response checklist.Response
	note     string
}

// Write emits every catalog question with its recorded response and note.
func Write(w io.Writer, session *checklist.Session) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, category := range session.Catalog().Categories() {
		for _, q := range category.Questions {
			row := []string{
				category.ID,
				strconv.Itoa(q.ID.Index),
				q.Prompt,
				session.Response(q.ID).String(),
				session.Note(q.ID),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseRow(record []string, cols columns) (checklist.QuestionID, checklist.Response, string, error) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	category := strings.TrimSpace(strings.TrimPrefix(field(cols.category), "\ufeff"))
	if category == "" {
		return checklist.QuestionID{}, checklist.Unanswered, "", errors.New("category is required")
	}
	rawIndex := strings.TrimSpace(field(cols.index))
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 {
		return checklist.QuestionID{}, checklist.Unanswered, "", fmt.Errorf("invalid index %q", rawIndex)
	}

	var resp checklist.Response
	if err := resp.UnmarshalText([]byte(field(cols.response))); err != nil {
		return checklist.QuestionID{}, checklist.Unanswered, "", err
	}
	return checklist.QuestionID{Category: category, Index: index}, resp, field(cols.note), nil
}

func detectColumns(record []string) (columns, bool) {
	cols := columns{category: -1, index: -1, response: -1, note: -1}
	for idx, value := range record {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "\ufeff"))) {
		case "category", "category_id":
			cols.category = idx
		case "index", "question_index":
			cols.index = idx
		case "response", "answer":
			cols.response = idx
		case "note", "notes", "evidence":
			cols.note = idx
		}
	}
	if cols.category < 0 || cols.index < 0 {
		return columns{}, false
	}
	return cols, true
}
