package store

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"ai-vetting/backend/internal/checklist"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes a private in-memory SQLite database. Nothing written to it
// outlives the process.
func Open(name string, silent bool) (*Database, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = uuid.NewString()
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", url.PathEscape(name))

	cfg := &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	// the in-memory database lives as long as its only connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := db.AutoMigrate(&Assessment{}, &Answer{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	logrus.WithField("database", name).Debug("in-memory store ready")
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection, discarding all data.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateAssessment inserts a new, empty assessment.
func (d *Database) CreateAssessment(toolName, assessor string) (*Assessment, error) {
	assessment := &Assessment{
		ID:       uuid.NewString(),
		ToolName: strings.TrimSpace(toolName),
		Assessor: strings.TrimSpace(assessor),
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.gorm.Create(assessment).Error; err != nil {
		return nil, err
	}
	return assessment, nil
}

// GetAssessment retrieves an assessment by ID without its answers.
func (d *Database) GetAssessment(id string) (*Assessment, error) {
	var assessment Assessment
	if err := d.gorm.Where("id = ?", id).First(&assessment).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

// ListAssessments returns assessments ordered by creation time, newest first.
func (d *Database) ListAssessments(offset, limit int) ([]Assessment, int64, error) {
	var total int64
	if err := d.gorm.Model(&Assessment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := d.gorm.Model(&Assessment{}).Order("created_at DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	var rows []Assessment
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DeleteAssessment removes an assessment and all of its answers.
func (d *Database) DeleteAssessment(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assessment_id = ?", id).Delete(&Answer{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Assessment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SaveResponse upserts the response for a question, keeping any existing note.
func (d *Database) SaveResponse(assessmentID string, id checklist.QuestionID, response checklist.Response) error {
	return d.SaveAnswer(assessmentID, id, &response, nil)
}

// SaveNote upserts the note for a question, keeping any existing response.
func (d *Database) SaveNote(assessmentID string, id checklist.QuestionID, note string) error {
	return d.SaveAnswer(assessmentID, id, nil, &note)
}

// SaveAnswer upserts whichever of response and note is non-nil in a single
// statement. Columns left nil keep their stored value.
func (d *Database) SaveAnswer(assessmentID string, id checklist.QuestionID, response *checklist.Response, note *string) error {
	answer := &Answer{
		AssessmentID:  assessmentID,
		Category:      id.Category,
		QuestionIndex: id.Index,
	}
	columns := make([]string, 0, 3)
	if response != nil {
		if !response.Valid() {
			return fmt.Errorf("%w: %d", checklist.ErrInvalidResponse, int(*response))
		}
		answer.Response = response.String()
		columns = append(columns, "response")
	}
	if note != nil {
		answer.Note = *note
		columns = append(columns, "note")
	}
	if len(columns) == 0 {
		return errors.New("nothing to save")
	}
	return d.upsert(answer, append(columns, "updated_at"))
}

func (d *Database) upsert(answer *Answer, columns []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "category"}, {Name: "question_index"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).Create(answer).Error; err != nil {
			return err
		}
		return touchAssessment(tx, answer.AssessmentID)
	})
}

// ListAnswers returns every stored answer for an assessment.
func (d *Database) ListAnswers(assessmentID string) ([]Answer, error) {
	var rows []Answer
	if err := d.gorm.Where("assessment_id = ?", assessmentID).
		Order("category ASC, question_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ReplaceAnswers swaps all answers of an assessment with the provided slice.
func (d *Database) ReplaceAnswers(assessmentID string, answers []Answer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assessment_id = ?", assessmentID).Delete(&Answer{}).Error; err != nil {
			return err
		}
		if len(answers) > 0 {
			rows := make([]Answer, len(answers))
			for i, a := range answers {
				a.ID = 0
				a.AssessmentID = assessmentID
				rows[i] = a
			}
			// Batch insert to stay under the SQLite variable limit
			if err := tx.CreateInBatches(rows, 250).Error; err != nil {
				return err
			}
		}
		return touchAssessment(tx, assessmentID)
	})
}

// LoadSession hydrates a checklist session from stored answers. Rows that no
// longer match the catalog are skipped.
func (d *Database) LoadSession(catalog *checklist.Catalog, assessmentID string) (*checklist.Session, error) {
	rows, err := d.ListAnswers(assessmentID)
	if err != nil {
		return nil, err
	}
	session := checklist.NewSession(catalog)
	for _, row := range rows {
		id := row.QuestionID()
		if resp := row.ParsedResponse(); resp.Valid() {
			if err := session.Record(id, resp); err != nil {
				logrus.WithError(err).WithField("assessment", assessmentID).Warn("skip stored response")
				continue
			}
		}
		if row.Note != "" {
			if err := session.SetNote(id, row.Note); err != nil {
				logrus.WithError(err).WithField("assessment", assessmentID).Warn("skip stored note")
			}
		}
	}
	return session, nil
}

func touchAssessment(tx *gorm.DB, id string) error {
	res := tx.Model(&Assessment{}).Where("id = ?", id).Update("updated_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_answers_assessment ON answers(assessment_id)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
