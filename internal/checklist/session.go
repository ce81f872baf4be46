package checklist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponse is returned for anything other than Yes, No or Unclear.
var ErrInvalidResponse = errors.New("invalid response")

// Response is the three-valued answer to a question. The zero value means
// the question has not been answered yet.
type Response int

const (
	Unanswered Response = iota
	Yes
	No
	Unclear
)

func (r Response) String() string {
	switch r {
	case Yes:
		return "Yes"
	case No:
		return "No"
	case Unclear:
		return "Unclear"
	default:
		return ""
	}
}

// Valid reports whether r is one of the three real answers.
func (r Response) Valid() bool {
	return r == Yes || r == No || r == Unclear
}

// ParseResponse converts user input into a Response.
func ParseResponse(value string) (Response, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes":
		return Yes, nil
	case "no":
		return No, nil
	case "unclear":
		return Unclear, nil
	}
	return Unanswered, fmt.Errorf("%w: %q", ErrInvalidResponse, value)
}

// MarshalText implements encoding.TextMarshaler.
func (r Response) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value decodes
// to Unanswered.
func (r *Response) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*r = Unanswered
		return nil
	}
	parsed, err := ParseResponse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Session holds the responses and notes for one assessment. It is owned by
// the caller and not safe for concurrent use.
type Session struct {
	catalog   *Catalog
	responses map[QuestionID]Response
	notes     map[QuestionID]string
}

// NewSession starts an empty session over the catalog.
func NewSession(catalog *Catalog) *Session {
	return &Session{
		catalog:   catalog,
		responses: make(map[QuestionID]Response),
		notes:     make(map[QuestionID]string),
	}
}

// Catalog returns the catalog the session answers.
func (s *Session) Catalog() *Catalog {
	return s.catalog
}

// Record stores the response for a question, replacing any previous one.
func (s *Session) Record(id QuestionID, response Response) error {
	if !s.catalog.Contains(id) {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	if !response.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidResponse, int(response))
	}
	s.responses[id] = response
	return nil
}

// SetNote stores the note for a question verbatim, replacing any previous one.
func (s *Session) SetNote(id QuestionID, note string) error {
	if !s.catalog.Contains(id) {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	s.notes[id] = note
	return nil
}

// Response returns the recorded response or Unanswered.
func (s *Session) Response(id QuestionID) Response {
	return s.responses[id]
}

// Note returns the recorded note or the empty string.
func (s *Session) Note(id QuestionID) string {
	return s.notes[id]
}

// Responses returns a copy of the recorded responses.
func (s *Session) Responses() map[QuestionID]Response {
	out := make(map[QuestionID]Response, len(s.responses))
	for k, v := range s.responses {
		out[k] = v
	}
	return out
}

// Notes returns a copy of the recorded notes.
func (s *Session) Notes() map[QuestionID]string {
	out := make(map[QuestionID]string, len(s.notes))
	for k, v := range s.notes {
		out[k] = v
	}
	return out
}

// Answered returns how many questions have a response.
func (s *Session) Answered() int {
	return len(s.responses)
}
