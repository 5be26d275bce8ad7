package router

import (
	"net/http"
	"time"

	"github.com/certilearn/assessd-backend/internal/config"
	"github.com/certilearn/assessd-backend/internal/handler"
	"github.com/certilearn/assessd-backend/internal/middleware"
	"github.com/certilearn/assessd-backend/internal/response"
	"github.com/certilearn/assessd-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth            *handler.AuthHandler
	CandidatePortal *handler.CandidatePortalHandler
	Authoring       *handler.AuthoringHandler
	WS              *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/candidate/login", handlers.Auth.CandidateLogin)
		auth.POST("/author/login", handlers.Auth.AuthorLogin)

		// Authenticated profile routes
		auth.POST("/candidate/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.CandidateLogout)
		auth.GET("/candidate/me", middleware.RequireCandidateJWT(authService), handlers.Auth.GetCandidateProfile)
		auth.GET("/author/me", middleware.RequireAuthorJWT(authService), handlers.Auth.GetAuthorProfile)
	}

	// ─── 2. Candidate Group (JWT + Single Device) ──────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		candidateAPI.GET("/exams", handlers.CandidatePortal.GetCatalog)
		candidateAPI.POST("/exams/:exam_id/start", handlers.CandidatePortal.StartAttempt)
		candidateAPI.GET("/exams/:exam_id/paper", handlers.CandidatePortal.GetPaper)
		candidateAPI.GET("/exams/:exam_id/state", handlers.CandidatePortal.GetState)
		candidateAPI.GET("/exams/:exam_id/result", handlers.CandidatePortal.GetResult)
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/candidate/exams/:exam_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Author Group (JWT) ─────────────────────────────────────────
	authorAPI := router.Group("/api/v1/author")
	authorAPI.Use(middleware.RequireAuthorJWT(authService))
	{
		authorAPI.GET("/exams", handlers.Authoring.ListExams)
		authorAPI.POST("/exams", handlers.Authoring.CreateExam)
		authorAPI.GET("/exams/:exam_id", handlers.Authoring.GetExam)
		authorAPI.PUT("/exams/:exam_id", handlers.Authoring.UpdateExam)
		authorAPI.DELETE("/exams/:exam_id", handlers.Authoring.DeleteExam)

		authorAPI.POST("/exams/:exam_id/questions", handlers.Authoring.AddQuestion)
		authorAPI.PUT("/exams/:exam_id/questions", handlers.Authoring.ReplaceQuestions)
		authorAPI.PUT("/exams/:exam_id/questions/:question_id", handlers.Authoring.UpdateQuestion)
		authorAPI.DELETE("/exams/:exam_id/questions/:question_id", handlers.Authoring.DeleteQuestion)

		authorAPI.GET("/exams/:exam_id/completeness", handlers.Authoring.GetCompleteness)
		authorAPI.POST("/exams/:exam_id/publish", handlers.Authoring.PublishExam)
		authorAPI.POST("/exams/:exam_id/archive", handlers.Authoring.ArchiveExam)
		authorAPI.GET("/exams/:exam_id/results", handlers.Authoring.GetResults)
	}

	return router
}
