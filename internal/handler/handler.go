// Package handler holds the gin handlers. Every response uses the
// response.ResponseData envelope.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/internal/apperror"
	"github.com/duccv/movie-rating-api/internal/constant"
	"github.com/duccv/movie-rating-api/internal/middleware"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/model/response"
	"github.com/duccv/movie-rating-api/pkg/logger"
)

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, response.Success(status, message, data))
}

// respondError writes the envelope for err. Internal causes are logged, never sent.
func respondError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	status := appErr.Kind.Status()

	log := logger.FromContext(c.Request.Context()).With(
		zap.String("path", c.Request.URL.Path),
		zap.String("kind", appErr.Kind.String()),
	)
	if appErr.Kind == apperror.KindInternal {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.String("reason", appErr.Message))
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, response.Failure(status, appErr.Message))
}

// identity returns the authenticated caller. Routes using it run behind
// middleware.Authenticate; without it the request is rejected with 401.
func identity(c *gin.Context) (*model.Identity, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondError(c, apperror.Unauthenticated(constant.UNAUTHORIZED.Message))
	}
	return id, ok
}
