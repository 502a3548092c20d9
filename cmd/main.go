package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/app"
	"github.com/duccv/movie-rating-api/pkg/logger"
)

//	@title			Movie Rating APIs
//	@version		1.0
//	@description	Movie catalogue with per-user ratings, bearer-token auth and role-gated administration.
//	@contact.name	DucCV
//	@BasePath		/api/v1

// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				RS256 access token as "Bearer <token>"
func main() {
	env := config.GetEnv()

	zapLogger := logger.GetLogger(env.LoggerConfig)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, env); err != nil {
		zapLogger.Error("Service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	zapLogger.Info("Service stopped")
}
