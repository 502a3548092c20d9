package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/duccv/movie-rating-api/internal/constant"
)

const maxCorrelationIDLength = 128

// CorrelationIDMiddleware propagates X-Correlation-ID, generating one when the
// client did not send a usable value.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(constant.CorrelationIDHeader)
		if cid == "" || len(cid) > maxCorrelationIDLength {
			cid = uuid.New().String()
		}
		ctx := context.WithValue(c.Request.Context(), constant.CorrelationIDKey, cid)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(constant.CorrelationIDHeader, cid)
		c.Next()
	}
}
