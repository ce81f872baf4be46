package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"ai-vetting/backend/internal/checklist"
	"ai-vetting/backend/internal/report"
	"ai-vetting/backend/internal/sheet"
	"ai-vetting/backend/internal/store"
	"ai-vetting/backend/internal/util"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// Config defines server dependencies.
type Config struct {
	DBName         string
	SilentDB       bool
	AllowedOrigins []string
	Catalog        *checklist.Catalog
}

// Server wires HTTP handlers with the session store, scoring and reporting.
type Server struct {
	db             *store.Database
	catalog        *checklist.Catalog
	allowedOrigins []string
	notifier       *RiskNotifier
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	db, err := store.Open(cfg.DBName, cfg.SilentDB)
	if err != nil {
		return nil, err
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = checklist.Default()
	}
	logrus.WithFields(logrus.Fields{
		"categories": len(catalog.Categories()),
		"questions":  catalog.Len(),
	}).Info("checklist catalog loaded")

	return &Server{
		db:             db,
		catalog:        catalog,
		allowedOrigins: cfg.AllowedOrigins,
		notifier:       NewRiskNotifier(),
	}, nil
}

// Close releases the in-memory store; all assessments are discarded.
func (s *Server) Close() error {
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{"Content-Disposition"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/checklist", s.handleChecklist)

	api := r.Group("/api")
	{
		api.POST("/assessments", s.handleCreateAssessment)
		api.GET("/assessments", s.handleListAssessments)
		api.GET("/assessments/:id", s.handleGetAssessment)
		api.DELETE("/assessments/:id", s.handleDeleteAssessment)
		api.PUT("/assessments/:id/answers/:category/:index", s.handleSaveAnswer)
		api.POST("/assessments/:id/risk", s.handleRisk)
		api.GET("/assessments/:id/report.txt", s.handleReportText)
		api.GET("/assessments/:id/report.pdf", s.handleReportPDF)
		api.GET("/assessments/:id/report.json", s.handleReportJSON)
		api.GET("/assessments/:id/export.csv", s.handleExportCSV)
		api.POST("/assessments/:id/import", s.handleImport)
		api.GET("/assessments/:id/stream", s.handleStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChecklist(c *gin.Context) {
	c.JSON(http.StatusOK, ChecklistFromCatalog(s.catalog))
}

func (s *Server) handleCreateAssessment(c *gin.Context) {
	var req CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.ToolName) == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("tool_name is required"))
		return
	}

	assessment, err := s.db.CreateAssessment(req.ToolName, req.Assessor)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	logrus.WithFields(logrus.Fields{
		"assessment": assessment.ID,
		"tool":       assessment.ToolName,
	}).Info("assessment created")
	c.JSON(http.StatusCreated, AssessmentFromModel(*assessment))
}

func (s *Server) handleListAssessments(c *gin.Context) {
	page, err := queryInt(c, "page", 0)
	if err != nil || page < 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("page must be a non-negative integer"))
		return
	}
	pageSize, err := queryInt(c, "pageSize", defaultPageSize)
	if err != nil || pageSize <= 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("pageSize must be a positive integer"))
		return
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page > math.MaxInt32/pageSize {
		s.renderError(c, http.StatusBadRequest, errors.New("page out of range"))
		return
	}

	rows, total, err := s.db.ListAssessments(page*pageSize, pageSize)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]AssessmentDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, AssessmentFromModel(row))
	}
	c.JSON(http.StatusOK, AssessmentsResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	assessment, session, ok := s.loadAssessment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, AssessmentDetailResponse{
		AssessmentDTO: AssessmentFromModel(*assessment),
		Risk:          RiskFromSession(session),
		Answers:       AnswersFromSession(session),
	})
}

func (s *Server) handleDeleteAssessment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.db.DeleteAssessment(id); err != nil {
		if store.IsNotFound(err) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("assessment %s not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	s.notifier.Forget(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSaveAnswer(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	questionID, err := parseQuestionParams(c.Param("category"), c.Param("index"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	category, ok := s.catalog.Category(questionID.Category)
	if !ok {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("unknown category %q", questionID.Category))
		return
	}
	if questionID.Index >= len(category.Questions) {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("%w: %s", checklist.ErrUnknownQuestion, questionID))
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if req.Response == nil && req.Note == nil {
		s.renderError(c, http.StatusBadRequest, errors.New("response or note is required"))
		return
	}

	var resp *checklist.Response
	if req.Response != nil {
		parsed, err := checklist.ParseResponse(*req.Response)
		if err != nil {
			s.renderError(c, http.StatusBadRequest, err)
			return
		}
		resp = &parsed
	}
	if err := s.db.SaveAnswer(id, questionID, resp, req.Note); err != nil {
		s.renderStoreError(c, id, err)
		return
	}

	session, err := s.db.LoadSession(s.catalog, id)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	risk := RiskFromSession(session)
	s.notifier.Broadcast(RiskEvent{
		Type:         "answer",
		AssessmentID: id,
		Risk:         risk,
		Question:     questionID.String(),
	})

	c.JSON(http.StatusOK, gin.H{
		"answer": AnswerDTO{
			Category: questionID.Category,
			Index:    questionID.Index,
			Question: promptFor(s.catalog, questionID),
			Response: session.Response(questionID),
			Note:     session.Note(questionID),
		},
		"risk": risk,
	})
}

func (s *Server) handleRisk(c *gin.Context) {
	_, session, ok := s.loadAssessment(c)
	if !ok {
		return
	}
	risk := RiskFromSession(session)
	logrus.WithFields(logrus.Fields{
		"assessment": c.Param("id"),
		"risk":       risk.Tier,
		"flagged":    risk.Flagged,
		"answered":   risk.Answered,
	}).Info("risk calculated")
	c.JSON(http.StatusOK, risk)
}

func (s *Server) handleReportText(c *gin.Context) {
	s.renderReport(c, report.FormatText)
}

func (s *Server) handleReportPDF(c *gin.Context) {
	s.renderReport(c, report.FormatPDF)
}

func (s *Server) handleReportJSON(c *gin.Context) {
	_, session, ok := s.loadAssessment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.FromSession(session))
}

func (s *Server) renderReport(c *gin.Context, format report.Format) {
	_, session, ok := s.loadAssessment(c)
	if !ok {
		return
	}

	timer := util.StartTimer()
	rep := report.FromSession(session)
	artifact, err := report.Export(rep, format)
	fields := logrus.Fields{
		"assessment": c.Param("id"),
		"format":     format,
		"risk":       rep.Risk,
		"elapsed_ms": timer.ElapsedMs(),
	}
	if err != nil {
		logrus.WithError(err).WithFields(fields).Warn("report export failed")
		if errors.Is(err, report.ErrUnsupportedCharacter) {
			s.renderError(c, http.StatusUnprocessableEntity, err)
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	logrus.WithFields(fields).WithField("bytes", len(artifact.Data)).Info("report exported")

	c.Header("Content-Disposition", "attachment; filename="+artifact.Filename)
	c.Data(http.StatusOK, artifact.MediaType, artifact.Data)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	_, session, ok := s.loadAssessment(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", "attachment; filename=ai_vetting_answers.csv")
	c.Header("Content-Type", "text/csv")
	if err := sheet.Write(c.Writer, session); err != nil {
		logrus.WithError(err).WithField("assessment", c.Param("id")).Warn("write answers csv")
	}
}

func (s *Server) handleImport(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := s.db.GetAssessment(id); err != nil {
		s.renderStoreError(c, id, err)
		return
	}

	fileHeader, err := c.FormFile("answers")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.renderError(c, http.StatusBadRequest, errors.New("answers csv file is required"))
		} else {
			s.renderError(c, http.StatusBadRequest, err)
		}
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	defer src.Close()

	session, stats, err := sheet.Read(src, s.catalog)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.db.ReplaceAnswers(id, AnswersToModels(session)); err != nil {
		s.renderStoreError(c, id, err)
		return
	}

	risk := RiskFromSession(session)
	s.notifier.Broadcast(RiskEvent{Type: "import", AssessmentID: id, Risk: risk})
	logrus.WithFields(logrus.Fields{
		"assessment": id,
		"file":       fileHeader.Filename,
		"rows":       stats.Rows,
		"duplicates": stats.Duplicates,
	}).Info("answer sheet imported")

	c.JSON(http.StatusOK, ImportResponse{Stats: stats, Risk: risk})
}

func (s *Server) handleStream(c *gin.Context) {
	_, session, ok := s.loadAssessment(c)
	if !ok {
		return
	}
	id := c.Param("id")

	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	initial := RiskEvent{Type: "snapshot", AssessmentID: id, Risk: RiskFromSession(session)}
	client := s.notifier.Register(id, conn, &initial)
	logrus.WithFields(logrus.Fields{
		"assessment": id,
		"remote":     conn.RemoteAddr().String(),
	}).Info("risk websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("assessment", id).Info("risk websocket closed")
			} else {
				logrus.WithError(err).Warn("risk websocket unexpected close")
			}
			break
		}
	}
}

// loadAssessment resolves the :id parameter and hydrates its session,
// rendering the error response itself when it returns false.
func (s *Server) loadAssessment(c *gin.Context) (*store.Assessment, *checklist.Session, bool) {
	id := strings.TrimSpace(c.Param("id"))
	assessment, err := s.db.GetAssessment(id)
	if err != nil {
		s.renderStoreError(c, id, err)
		return nil, nil, false
	}
	session, err := s.db.LoadSession(s.catalog, id)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return nil, nil, false
	}
	return assessment, session, true
}

func (s *Server) renderStoreError(c *gin.Context, id string, err error) {
	if store.IsNotFound(err) {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("assessment %s not found", id))
		return
	}
	s.renderError(c, http.StatusInternalServerError, err)
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseQuestionParams(category, index string) (checklist.QuestionID, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return checklist.QuestionID{}, errors.New("category is required")
	}
	return checklist.ParseQuestionID(category + "/" + strings.TrimSpace(index))
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func promptFor(catalog *checklist.Catalog, id checklist.QuestionID) string {
	q, _ := catalog.Question(id)
	return q.Prompt
}
