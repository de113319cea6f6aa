package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportdesk/backend/internal/interfaces/http/dto"
)

// defaultMaxBodyBytes applies when no limit is configured. Import
// batches are the largest payload the API accepts, and 1 MiB covers a
// full batch comfortably.
const defaultMaxBodyBytes int64 = 1 << 20

// BodyLimit caps request body size. Requests declaring a Content-Length
// over the cap are refused up front with 413; chunked uploads are
// wrapped in a MaxBytesReader so oversized bodies fail at read time
// instead.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size"))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
