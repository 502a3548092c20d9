package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/internal/constant"
	"github.com/duccv/movie-rating-api/pkg/logger"
)

const slowRequestThreshold = 5 * time.Second

// RequestLogger logs one line per request. It runs after CorrelationIDMiddleware.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("duration", duration),
			zap.String("ip", c.ClientIP()),
			zap.String("userAgent", c.Request.UserAgent()),
		}
		if identity, ok := CurrentIdentity(c); ok {
			fields = append(fields, zap.String("userId", identity.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		log := logger.FromContext(c.Request.Context())
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("Request completed", fields...)
		case duration > slowRequestThreshold:
			log.Warn("Slow request detected", fields...)
		default:
			log.Info("Request completed", fields...)
		}
	}
}

// Recovery turns a panic into the 500 envelope and logs it with a stack trace.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"))
		abortWith(c, constant.INTERNAL_SERVER_ERROR)
	})
}
