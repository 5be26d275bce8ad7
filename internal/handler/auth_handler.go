package handler

import (
	"errors"
	"net/http"

	"github.com/certilearn/assessd-backend/internal/middleware"
	"github.com/certilearn/assessd-backend/internal/model"
	"github.com/certilearn/assessd-backend/internal/repository"
	"github.com/certilearn/assessd-backend/internal/response"
	"github.com/certilearn/assessd-backend/internal/service"
	"github.com/certilearn/assessd-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService   *service.AuthService
	candidateRepo *repository.CandidateRepository
	authorRepo    *repository.AuthorRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	candidateRepo *repository.CandidateRepository,
	authorRepo *repository.AuthorRepository,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		candidateRepo: candidateRepo,
		authorRepo:    authorRepo,
	}
}

// CandidateLogin godoc
// POST /api/v1/auth/candidate/login
// Validates username + password, rejects if a login is already active,
// returns JWT.
func (h *AuthHandler) CandidateLogin(c *gin.Context) {
	var req model.CandidateLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.candidateRepo.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(candidate.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateCandidateToken(c.Request.Context(), candidate.ID)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"candidate": gin.H{
			"id":       candidate.ID,
			"name":     candidate.Name,
			"username": candidate.Username,
		},
	})
}

// CandidateLogout godoc
// POST /api/v1/auth/candidate/logout
// Releases the single-device login so the candidate can sign in elsewhere.
func (h *AuthHandler) CandidateLogout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ResetCandidateSession(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetCandidateProfile godoc
// GET /api/v1/auth/candidate/me
// Returns the profile of the currently authenticated candidate.
func (h *AuthHandler) GetCandidateProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	candidate, err := h.candidateRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"candidate": gin.H{
			"id":       candidate.ID,
			"name":     candidate.Name,
			"username": candidate.Username,
		},
	})
}

// AuthorLogin godoc
// POST /api/v1/auth/author/login
// Validates email + password, returns JWT.
func (h *AuthHandler) AuthorLogin(c *gin.Context) {
	var req model.AuthorLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	author, err := h.authorRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(author.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateAuthorToken(author.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"author": gin.H{
			"id":    author.ID,
			"name":  author.Name,
			"email": author.Email,
		},
	})
}

// GetAuthorProfile godoc
// GET /api/v1/auth/author/me
// Returns the profile of the currently authenticated author.
func (h *AuthHandler) GetAuthorProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	author, err := h.authorRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"author": gin.H{
			"id":    author.ID,
			"name":  author.Name,
			"email": author.Email,
		},
	})
}
