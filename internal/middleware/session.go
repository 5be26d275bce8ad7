package middleware

import (
	"net/http"

	"github.com/certilearn/assessd-backend/internal/response"
	"github.com/certilearn/assessd-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// CheckSingleDeviceLogin validates the JWT's JTI against the active login
// session in Redis. A mismatch means the login was reset or superseded and
// the request is rejected, so a second browser can never drive an attempt.
func CheckSingleDeviceLogin(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		// Only candidate tokens are single-device.
		if claims.TokenType != service.TokenTypeCandidate {
			c.Next()
			return
		}

		if err := authService.ValidateCandidateSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
