package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-vetting/backend/internal/checklist"
	"ai-vetting/backend/internal/scoring"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAssessmentLifecycle(t *testing.T) {
	db := openTestDB(t)

	created, err := db.CreateAssessment("  ChatWidget Pro ", "legal")
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
	assert.Equal(t, "ChatWidget Pro", created.ToolName)

	got, err := db.GetAssessment(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "legal", got.Assessor)

	rows, total, err := db.ListAssessments(0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, rows, 1)

	require.NoError(t, db.DeleteAssessment(created.ID))
	_, err = db.GetAssessment(created.ID)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(db.DeleteAssessment(created.ID)))
}

func TestSaveResponseOverwrites(t *testing.T) {
	db := openTestDB(t)
	a, err := db.CreateAssessment("tool", "")
	require.NoError(t, err)

	id := checklist.QuestionID{Category: "usage-rights", Index: 1}
	require.NoError(t, db.SaveNote(a.ID, id, "retention is 90 days"))
	require.NoError(t, db.SaveResponse(a.ID, id, checklist.Yes))
	require.NoError(t, db.SaveResponse(a.ID, id, checklist.Unclear))

	rows, err := db.ListAnswers(a.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Unclear", rows[0].Response)
	assert.Equal(t, "retention is 90 days", rows[0].Note)
	assert.Equal(t, id, rows[0].QuestionID())
}

func TestSaveRejectsUnknownAssessmentAndInvalidResponse(t *testing.T) {
	db := openTestDB(t)
	id := checklist.QuestionID{Category: "usage-rights", Index: 0}

	err := db.SaveResponse("missing", id, checklist.Yes)
	assert.True(t, IsNotFound(err))

	rows, err := db.ListAnswers("missing")
	require.NoError(t, err)
	assert.Empty(t, rows, "failed upsert must roll back")

	a, err := db.CreateAssessment("tool", "")
	require.NoError(t, err)
	assert.ErrorIs(t, db.SaveResponse(a.ID, id, checklist.Unanswered), checklist.ErrInvalidResponse)
}

func TestSaveAnswerWritesBothColumnsAtomically(t *testing.T) {
	db := openTestDB(t)
	a, err := db.CreateAssessment("tool", "")
	require.NoError(t, err)
	id := checklist.QuestionID{Category: "data-handling", Index: 4}

	resp, note := checklist.No, "logs kept forever"
	require.NoError(t, db.SaveAnswer(a.ID, id, &resp, &note))

	bad, other := checklist.Response(9), "must not land"
	assert.ErrorIs(t, db.SaveAnswer(a.ID, id, &bad, &other), checklist.ErrInvalidResponse)
	assert.Error(t, db.SaveAnswer(a.ID, id, nil, nil))

	missingNote := "orphan"
	assert.True(t, IsNotFound(db.SaveAnswer("missing", id, &resp, &missingNote)))

	rows, err := db.ListAnswers(a.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "No", rows[0].Response)
	assert.Equal(t, "logs kept forever", rows[0].Note)

	rows, err = db.ListAnswers("missing")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReplaceAnswersAndLoadSession(t *testing.T) {
	db := openTestDB(t)
	a, err := db.CreateAssessment("tool", "")
	require.NoError(t, err)
	require.NoError(t, db.SaveResponse(a.ID, checklist.QuestionID{Category: "data-handling", Index: 0}, checklist.Yes))

	require.NoError(t, db.ReplaceAnswers(a.ID, []Answer{
		{Category: "usage-rights", QuestionIndex: 0, Response: "No", Note: "no deletion API"},
		{Category: "usage-rights", QuestionIndex: 1, Response: "Unclear"},
		{Category: "model-training", QuestionIndex: 4, Response: "No"},
		{Category: "legal-compliance", QuestionIndex: 0, Note: "pending review"},
		{Category: "retired-category", QuestionIndex: 0, Response: "No"},
	}))

	session, err := db.LoadSession(checklist.Default(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, session.Answered())
	assert.Equal(t, checklist.Unanswered, session.Response(checklist.QuestionID{Category: "data-handling", Index: 0}))
	assert.Equal(t, "no deletion API", session.Note(checklist.QuestionID{Category: "usage-rights", Index: 0}))
	assert.Equal(t, "pending review", session.Note(checklist.QuestionID{Category: "legal-compliance", Index: 0}))
	assert.Equal(t, scoring.TierMedium, scoring.ComputeRisk(session.Responses()))
}

func TestStoreIsNotPersistent(t *testing.T) {
	db, err := Open("vetting-persistence-check", true)
	require.NoError(t, err)
	_, err = db.CreateAssessment("tool", "")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := Open("vetting-persistence-check", true)
	require.NoError(t, err)
	defer reopened.Close()
	_, total, err := reopened.ListAssessments(0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}
