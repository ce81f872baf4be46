package store

import (
	"time"

	"ai-vetting/backend/internal/checklist"
)

// Assessment is one vetting session for a single AI tool.
type Assessment struct {
	ID        string   `gorm:"primaryKey;size:36"`
	ToolName  string   `gorm:"size:255;index"`
	Assessor  string   `gorm:"size:128"`
	Answers   []Answer `gorm:"foreignKey:AssessmentID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Answer holds the response and note for one question of an assessment.
type Answer struct {
	ID            uint   `gorm:"primaryKey"`
	AssessmentID  string `gorm:"size:36;uniqueIndex:idx_answers_question"`
	Category      string `gorm:"size:64;uniqueIndex:idx_answers_question"`
	QuestionIndex int    `gorm:"uniqueIndex:idx_answers_question"`
	Response      string `gorm:"size:16"`
	Note          string `gorm:"type:text"`
	UpdatedAt     time.Time
}

// QuestionID returns the catalog identifier the answer belongs to.
func (a Answer) QuestionID() checklist.QuestionID {
	return checklist.QuestionID{Category: a.Category, Index: a.QuestionIndex}
}

// ParsedResponse decodes the stored response; unknown values read as unanswered.
func (a Answer) ParsedResponse() checklist.Response {
	var r checklist.Response
	if err := r.UnmarshalText([]byte(a.Response)); err != nil {
		return checklist.Unanswered
	}
	return r
}
