package checklist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownQuestion is returned when a question id is not part of the catalog.
var ErrUnknownQuestion = errors.New("unknown question")

// QuestionID identifies a question by its category slug and zero-based position.
type QuestionID struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
}

func (id QuestionID) String() string {
	return id.Category + "/" + strconv.Itoa(id.Index)
}

// ParseQuestionID parses the "<category>/<index>" form produced by String.
func ParseQuestionID(value string) (QuestionID, error) {
	category, rawIndex, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok || category == "" {
		return QuestionID{}, fmt.Errorf("invalid question id %q", value)
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 {
		return QuestionID{}, fmt.Errorf("invalid question index %q", rawIndex)
	}
	return QuestionID{Category: category, Index: index}, nil
}

// Question is a single checklist prompt.
type Question struct {
	ID     QuestionID
	Prompt string
}

// Category is a named, ordered group of questions.
type Category struct {
	ID        string
	Name      string
	Questions []Question
}

// Entry describes a category when building a catalog.
type Entry struct {
	ID      string
	Name    string
	Prompts []string
}

// Catalog is the read-only category -> questions structure.
type Catalog struct {
	categories []Category
	byID       map[string]int
	total      int
}

// NewCatalog builds a catalog preserving the order of entries and prompts.
func NewCatalog(entries []Entry) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(entries))}
	for _, entry := range entries {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, errors.New("category id is required")
		}
		if strings.Contains(id, "/") {
			return nil, fmt.Errorf("category id %q must not contain '/'", id)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate category id %q", id)
		}
		if len(entry.Prompts) == 0 {
			return nil, fmt.Errorf("category %q has no questions", id)
		}
		category := Category{ID: id, Name: entry.Name, Questions: make([]Question, 0, len(entry.Prompts))}
		for i, prompt := range entry.Prompts {
			if strings.TrimSpace(prompt) == "" {
				return nil, fmt.Errorf("category %q question %d is empty", id, i)
			}
			category.Questions = append(category.Questions, Question{
				ID:     QuestionID{Category: id, Index: i},
				Prompt: prompt,
			})
		}
		c.byID[id] = len(c.categories)
		c.categories = append(c.categories, category)
		c.total += len(category.Questions)
	}
	return c, nil
}

// Categories returns the categories in catalog order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, category := range c.categories {
		out[i] = category
		out[i].Questions = append([]Question(nil), category.Questions...)
	}
	return out
}

// Category looks up a category by id.
func (c *Catalog) Category(id string) (Category, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Category{}, false
	}
	category := c.categories[idx]
	category.Questions = append([]Question(nil), category.Questions...)
	return category, true
}

// Question looks up a single question.
func (c *Catalog) Question(id QuestionID) (Question, bool) {
	idx, ok := c.byID[id.Category]
	if !ok {
		return Question{}, false
	}
	questions := c.categories[idx].Questions
	if id.Index < 0 || id.Index >= len(questions) {
		return Question{}, false
	}
	return questions[id.Index], true
}

// Contains reports whether the id refers to a catalog question.
func (c *Catalog) Contains(id QuestionID) bool {
	_, ok := c.Question(id)
	return ok
}

// Len returns the total number of questions.
func (c *Catalog) Len() int {
	return c.total
}
