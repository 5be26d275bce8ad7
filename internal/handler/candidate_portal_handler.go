package handler

import (
	"errors"
	"net/http"

	"github.com/certilearn/assessd-backend/internal/grading"
	"github.com/certilearn/assessd-backend/internal/middleware"
	"github.com/certilearn/assessd-backend/internal/response"
	"github.com/certilearn/assessd-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// CandidatePortalHandler handles the candidate-facing REST surface: catalog,
// attempt start, paper retrieval, state recovery, and results. The live
// attempt itself runs over the WebSocket stream.
type CandidatePortalHandler struct {
	deliveryService *service.DeliveryService
	gradingService  *grading.Service
}

// NewCandidatePortalHandler creates a new CandidatePortalHandler.
func NewCandidatePortalHandler(
	deliveryService *service.DeliveryService,
	gradingService *grading.Service,
) *CandidatePortalHandler {
	return &CandidatePortalHandler{
		deliveryService: deliveryService,
		gradingService:  gradingService,
	}
}

// GetCatalog godoc
// GET /api/v1/candidate/exams
// Published exams with the candidate's attempt state overlaid.
func (h *CandidatePortalHandler) GetCatalog(c *gin.Context) {
	claims := middleware.GetClaims(c)

	catalog, err := h.deliveryService.Catalog(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, catalog)
}

// StartAttempt godoc
// POST /api/v1/candidate/exams/:exam_id/start
// Idempotent: repeated calls return the original attempt with its original
// started_at.
func (h *CandidatePortalHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	attempt, err := h.deliveryService.StartAttempt(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrExamNotPublished):
			response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, attempt)
}

// GetPaper godoc
// GET /api/v1/candidate/exams/:exam_id/paper
// The exam paper without correct answers. Requires an active attempt.
func (h *CandidatePortalHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	if err := h.deliveryService.VerifyActiveAttempt(c.Request.Context(), examID, claims.UserID); err != nil {
		failForAttemptError(c, err)
		return
	}

	eng, err := h.deliveryService.Engine(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failForAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, eng.Paper())
}

// GetState godoc
// GET /api/v1/candidate/exams/:exam_id/state
// Recovery endpoint: remaining time recomputed from the persisted start plus
// the snapshot overview, so a reloaded client re-renders exactly where it
// left off.
func (h *CandidatePortalHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	state, err := h.deliveryService.GetAttemptState(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failForAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// GetResult godoc
// GET /api/v1/candidate/exams/:exam_id/result
func (h *CandidatePortalHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	res, err := h.gradingService.GetResult(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		if errors.Is(err, grading.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// failForAttemptError maps delivery errors onto response codes.
func failForAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveAttempt):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
	case errors.Is(err, service.ErrAttemptCompleted):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateSubmission)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
