package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/certilearn/assessd-backend/internal/authoring"
	"github.com/certilearn/assessd-backend/internal/middleware"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/certilearn/assessd-backend/internal/repository"
	"github.com/certilearn/assessd-backend/internal/response"
	"github.com/certilearn/assessd-backend/internal/service"
	"github.com/certilearn/assessd-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AuthoringHandler handles the author-facing exam lifecycle: draft CRUD,
// question editing, completeness checks, publish/archive, and results.
type AuthoringHandler struct {
	examService *service.ExamService
	resultRepo  *repository.ResultRepository
}

// NewAuthoringHandler creates a new AuthoringHandler.
func NewAuthoringHandler(examService *service.ExamService, resultRepo *repository.ResultRepository) *AuthoringHandler {
	return &AuthoringHandler{examService: examService, resultRepo: resultRepo}
}

// ListExams godoc
// GET /api/v1/author/exams?page=1&per_page=10
func (h *AuthoringHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	exams, pagination, err := h.examService.ListByAuthor(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, exams, pagination)
}

// GetExam godoc
// GET /api/v1/author/exams/:exam_id
// Returns the full definition including questions and answer keys.
func (h *AuthoringHandler) GetExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	def, err := h.examService.GetFull(c.Request.Context(), examID)
	if err != nil {
		failForAuthoringError(c, err)
		return
	}
	if def.AuthorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
		return
	}
	response.Success(c, http.StatusOK, def)
}

// CreateExam godoc
// POST /api/v1/author/exams
func (h *AuthoringHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	def := &model.ExamDefinition{
		Title:                  req.Title,
		AuthorID:               claims.UserID,
		DurationMinutes:        req.DurationMinutes,
		PassingScorePercent:    req.PassingScorePercent,
		RandomizeQuestionOrder: req.RandomizeQuestionOrder,
		RandomizeOptionOrder:   req.RandomizeOptionOrder,
	}
	if err := h.examService.Create(c.Request.Context(), def); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, def)
}

// UpdateExam godoc
// PUT /api/v1/author/exams/:exam_id
func (h *AuthoringHandler) UpdateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	existing, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		failForAuthoringError(c, err)
		return
	}

	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.DurationMinutes > 0 {
		existing.DurationMinutes = req.DurationMinutes
	}
	if req.PassingScorePercent != nil {
		existing.PassingScorePercent = *req.PassingScorePercent
	}
	if req.RandomizeQuestionOrder != nil {
		existing.RandomizeQuestionOrder = *req.RandomizeQuestionOrder
	}
	if req.RandomizeOptionOrder != nil {
		existing.RandomizeOptionOrder = *req.RandomizeOptionOrder
	}

	if err := h.examService.Update(c.Request.Context(), claims.UserID, existing); err != nil {
		failForAuthoringError(c, err)
		return
	}
	response.Success(c, http.StatusOK, existing)
}

// DeleteExam godoc
// DELETE /api/v1/author/exams/:exam_id
func (h *AuthoringHandler) DeleteExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID, claims.UserID); err != nil {
		failForAuthoringError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// AddQuestion godoc
// POST /api/v1/author/exams/:exam_id/questions
func (h *AuthoringHandler) AddQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q := questionFromRequest(examID, &req)
	if err := h.examService.AddQuestion(c.Request.Context(), claims.UserID, q); err != nil {
		failForAuthoringError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, q)
}

// UpdateQuestion godoc
// PUT /api/v1/author/exams/:exam_id/questions/:question_id
func (h *AuthoringHandler) UpdateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q := questionFromRequest(examID, &req)
	q.ID = questionID
	if err := h.examService.UpdateQuestion(c.Request.Context(), claims.UserID, q); err != nil {
		failForAuthoringError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// DeleteQuestion godoc
// DELETE /api/v1/author/exams/:exam_id/questions/:question_id
func (h *AuthoringHandler) DeleteQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.DeleteQuestion(c.Request.Context(), claims.UserID, examID, questionID); err != nil {
		failForAuthoringError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ReplaceQuestions godoc
// PUT /api/v1/author/exams/:exam_id/questions
// Atomically replaces the whole question set of a draft exam.
func (h *AuthoringHandler) ReplaceQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i := range req.Questions {
		q := questionFromRequest(examID, &req.Questions[i])
		if q.OrderNum == 0 {
			q.OrderNum = i
		}
		questions = append(questions, *q)
	}

	if err := h.examService.ReplaceQuestions(c.Request.Context(), claims.UserID, examID, questions); err != nil {
		failForAuthoringError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": len(questions)})
}

// GetCompleteness godoc
// GET /api/v1/author/exams/:exam_id/completeness
// Live completeness counts for the authoring UI.
func (h *AuthoringHandler) GetCompleteness(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	report, err := h.examService.CompletenessReport(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failForAuthoringError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// PublishExam godoc
// POST /api/v1/author/exams/:exam_id/publish
func (h *AuthoringHandler) PublishExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	if err := h.examService.Publish(c.Request.Context(), examID, claims.UserID); err != nil {
		failForAuthoringError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": model.ExamStatusPublished})
}

// ArchiveExam godoc
// POST /api/v1/author/exams/:exam_id/archive
func (h *AuthoringHandler) ArchiveExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	if err := h.examService.Archive(c.Request.Context(), examID, claims.UserID); err != nil {
		failForAuthoringError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": model.ExamStatusArchived})
}

// GetResults godoc
// GET /api/v1/author/exams/:exam_id/results?page=1&per_page=10
// Per-candidate scores for one exam, unscored attempts included.
func (h *AuthoringHandler) GetResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		failForAuthoringError(c, err)
		return
	}
	if exam.AuthorID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	results, total, err := h.resultRepo.ListByExam(c.Request.Context(), examID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []repository.CandidateResult{}
	}

	response.SuccessWithPagination(c, http.StatusOK, results, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// questionFromRequest maps an authoring payload onto the model. True-false
// questions always get the fixed option pair regardless of the payload.
func questionFromRequest(examID uuid.UUID, req *model.AddQuestionRequest) *model.Question {
	q := &model.Question{
		ExamID:              examID,
		Text:                req.Text,
		Kind:                model.QuestionKind(req.Kind),
		Options:             req.Options,
		CorrectMultiIndexes: req.CorrectMultiIndexes,
		CorrectText:         req.CorrectText,
		CaseSensitive:       req.CaseSensitive,
		Marks:               req.Marks,
		OrderNum:            req.OrderNum,
	}
	if req.CorrectSingleIndex != nil {
		q.CorrectSingleIndex = *req.CorrectSingleIndex
	}
	if q.Kind == model.KindTrueFalse {
		q.Options = model.TrueFalseOptions
	}
	if q.Marks == 0 {
		q.Marks = 1
	}
	return q
}

func parseExamID(c *gin.Context) (uuid.UUID, bool) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return examID, true
}

// failForAuthoringError maps authoring domain errors onto response codes.
func failForAuthoringError(c *gin.Context, err error) {
	var notPublishable *authoring.ErrNotPublishable
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotExamAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotExamAuthor)
	case errors.Is(err, service.ErrExamNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrExamNotDraft)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrInvalidQuestion):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"detail": err.Error()})
	case errors.As(err, &notPublishable):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrExamNotPublishable)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
