package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
	"github.com/chenglin1712/deming-rollcall/pkg/response"
)

// DenyRestricted keeps the floor-supervisor account away from roster
// management and history. It must run after RequireLogin.
func DenyRestricted(restricted string) gin.HandlerFunc {
	restricted = strings.TrimSpace(restricted)
	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if restricted != "" && session.Username == restricted {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
