package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/internal/auth"
	"github.com/duccv/movie-rating-api/internal/constant"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/model/response"
	"github.com/duccv/movie-rating-api/pkg/logger"
	"github.com/duccv/movie-rating-api/pkg/metrics"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// Authenticate resolves the bearer token to an identity and stores it on the
// context. Requests without a valid token are aborted with 401.
func Authenticate(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			rejectAuth(c, "missing_token", constant.UNAUTHORIZED, nil)
			return
		}

		identity, err := authenticator.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrTokenExpired):
			rejectAuth(c, "token_expired", constant.TOKEN_EXPIRED, err)
			return
		case errors.Is(err, auth.ErrInvalidToken):
			rejectAuth(c, "invalid_token", constant.INVALID_TOKEN, err)
			return
		case errors.Is(err, auth.ErrUnauthorized):
			rejectAuth(c, "unknown_subject", constant.UNAUTHORIZED, err)
			return
		default:
			logger.FromContext(c.Request.Context()).Error("Authentication failed", zap.Error(err))
			abortWith(c, constant.INTERNAL_SERVER_ERROR)
			return
		}

		c.Set(constant.IdentityKey, identity)
		logger.FromContext(c.Request.Context()).Debug("User authenticated",
			zap.String("userId", identity.ID),
			zap.String("path", c.Request.URL.Path))
		c.Next()
	}
}

// extractToken reads "Authorization: Bearer <token>"; the scheme is case-insensitive.
func extractToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func rejectAuth(c *gin.Context, reason string, res response.ResponseData, err error) {
	fields := []zap.Field{
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("ip", c.ClientIP()),
		zap.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.FromContext(c.Request.Context()).Warn("Authentication failed", fields...)
	metrics.RecordAuthRejection(reason)
	abortWith(c, res)
}
