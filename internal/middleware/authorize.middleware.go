package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/internal/auth"
	"github.com/duccv/movie-rating-api/internal/constant"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/pkg/logger"
	"github.com/duccv/movie-rating-api/pkg/metrics"
)

// RequireRole must run after Authenticate. It aborts with 403 unless the
// identity's role ranks at or above role.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			metrics.RecordAuthRejection("missing_identity")
			abortWith(c, constant.UNAUTHORIZED)
			return
		}

		if decision := auth.Authorize(identity, role); decision == auth.Deny {
			logger.FromContext(c.Request.Context()).Warn("Authorization denied",
				zap.String("userId", identity.ID),
				zap.String("role", string(identity.Role)),
				zap.String("required", string(role)),
				zap.String("path", c.Request.URL.Path))
			metrics.RecordAuthRejection("forbidden")
			abortWith(c, constant.FORBIDDEN)
			return
		}
		c.Next()
	}
}
