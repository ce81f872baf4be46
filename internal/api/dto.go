package api

import (
	"time"

	"ai-vetting/backend/internal/checklist"
	"ai-vetting/backend/internal/scoring"
	"ai-vetting/backend/internal/sheet"
	"ai-vetting/backend/internal/store"
)

// QuestionDTO is a catalog question as served to the form.
type QuestionDTO struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
}

// CategoryDTO is a catalog category with its questions in order.
type CategoryDTO struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Questions []QuestionDTO `json:"questions"`
}

// ChecklistResponse describes the whole form.
type ChecklistResponse struct {
	Categories []CategoryDTO `json:"categories"`
	Options    []string      `json:"options"`
	Rubric     string        `json:"rubric"`
}

// CreateAssessmentRequest starts a new assessment.
type CreateAssessmentRequest struct {
	ToolName string `json:"tool_name" binding:"required,max=255"`
	Assessor string `json:"assessor" binding:"max=128"`
}

// AnswerRequest records a response and/or note for one question.
type AnswerRequest struct {
	Response *string `json:"response" binding:"omitempty,oneof=Yes No Unclear"`
	Note     *string `json:"note"`
}

// AssessmentDTO is the API representation of an assessment.
type AssessmentDTO struct {
	ID        string    `json:"id"`
	ToolName  string    `json:"tool_name"`
	Assessor  string    `json:"assessor"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssessmentsResponse is the paginated assessment listing.
type AssessmentsResponse struct {
	Items []AssessmentDTO `json:"items"`
	Total int64           `json:"total"`
}

// AnswerDTO pairs a catalog question with its recorded answer.
type AnswerDTO struct {
	Category string             `json:"category"`
	Index    int                `json:"index"`
	Question string             `json:"question"`
	Response checklist.Response `json:"response"`
	Note     string             `json:"note"`
}

// RiskResponse is the "Calculate Risk" payload.
type RiskResponse struct {
	scoring.RiskResult
	Total  int    `json:"total"`
	Rubric string `json:"rubric"`
}

// AssessmentDetailResponse is an assessment with every answer and its risk.
type AssessmentDetailResponse struct {
	AssessmentDTO
	Risk    RiskResponse `json:"risk"`
	Answers []AnswerDTO  `json:"answers"`
}

// ImportResponse reports the outcome of an answer sheet upload.
type ImportResponse struct {
	sheet.Stats
	Risk RiskResponse `json:"risk"`
}

// AssessmentFromModel converts a store.Assessment into its DTO.
func AssessmentFromModel(a store.Assessment) AssessmentDTO {
	return AssessmentDTO{
		ID:        a.ID,
		ToolName:  a.ToolName,
		Assessor:  a.Assessor,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ChecklistFromCatalog converts the catalog into its DTO.
func ChecklistFromCatalog(c *checklist.Catalog) ChecklistResponse {
	categories := c.Categories()
	out := ChecklistResponse{
		Categories: make([]CategoryDTO, 0, len(categories)),
		Options:    []string{checklist.Yes.String(), checklist.No.String(), checklist.Unclear.String()},
		Rubric:     scoring.Rubric,
	}
	for _, category := range categories {
		dto := CategoryDTO{ID: category.ID, Name: category.Name, Questions: make([]QuestionDTO, 0, len(category.Questions))}
		for _, q := range category.Questions {
			dto.Questions = append(dto.Questions, QuestionDTO{Index: q.ID.Index, Prompt: q.Prompt})
		}
		out.Categories = append(out.Categories, dto)
	}
	return out
}

// AnswersFromSession lists every catalog question with the session's answer.
func AnswersFromSession(s *checklist.Session) []AnswerDTO {
	out := make([]AnswerDTO, 0, s.Catalog().Len())
	for _, category := range s.Catalog().Categories() {
		for _, q := range category.Questions {
			out = append(out, AnswerDTO{
				Category: category.ID,
				Index:    q.ID.Index,
				Question: q.Prompt,
				Response: s.Response(q.ID),
				Note:     s.Note(q.ID),
			})
		}
	}
	return out
}

// RiskFromSession assesses the session's current responses.
func RiskFromSession(s *checklist.Session) RiskResponse {
	return RiskResponse{
		RiskResult: scoring.Assess(s.Responses()),
		Total:      s.Catalog().Len(),
		Rubric:     scoring.Rubric,
	}
}

// AnswersToModels converts a session into store rows.
func AnswersToModels(s *checklist.Session) []store.Answer {
	var rows []store.Answer
	for _, category := range s.Catalog().Categories() {
		for _, q := range category.Questions {
			resp, note := s.Response(q.ID), s.Note(q.ID)
			if !resp.Valid() && note == "" {
				continue
			}
			rows = append(rows, store.Answer{
				Category:      q.ID.Category,
				QuestionIndex: q.ID.Index,
				Response:      resp.String(),
				Note:          note,
			})
		}
	}
	return rows
}
