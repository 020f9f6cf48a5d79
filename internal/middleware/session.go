package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/chenglin1712/deming-rollcall/internal/models"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
	"github.com/chenglin1712/deming-rollcall/pkg/logger"
	"github.com/chenglin1712/deming-rollcall/pkg/response"
)

// ContextSessionKey is the gin context key storing the current session.
const ContextSessionKey = "currentSession"

// SessionAuthenticator resolves a cookie token to a live session.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

// RequireLogin rejects requests without a valid session cookie with 401 JSON.
func RequireLogin(auth SessionAuthenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(logger.UsernameKey, session.Username)
		c.Next()
	}
}

// SessionFromContext returns the session stored by RequireLogin.
func SessionFromContext(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return session
}
