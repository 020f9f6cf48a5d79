package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
	"github.com/chenglin1712/deming-rollcall/pkg/response"
)

// BodyLimit caps the request body at maxBytes. Declared oversize bodies are
// rejected up front; handlers see *http.MaxBytesError for the rest.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
