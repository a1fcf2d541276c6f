package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logistics/backend/internal/infrastructure/logger"
	"github.com/logistics/backend/internal/interfaces/http/dto"
)

// DefaultBodyLimit caps request bodies; ledger requests are small JSON documents
const DefaultBodyLimit = 1 << 20

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				logger.GetRequestID(c.Request.Context()),
			))
			return
		}

		// streaming bodies without a length are cut off by the reader
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
