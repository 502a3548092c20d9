package http_server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/constant"
	"github.com/duccv/movie-rating-api/internal/middleware"
	"github.com/duccv/movie-rating-api/pkg/metrics"

	_ "github.com/duccv/movie-rating-api/docs"
)

type Server struct {
	App    *gin.Engine
	server *http.Server
	notify chan error

	address string
	bound   atomic.Value // string
	timeout time.Duration
}

// New builds the engine with the global stages; routes are added on App
// before Start.
func New(env *config.Env, opts ...Option) *Server {
	s := &Server{
		notify:  make(chan error, 1),
		address: _defaultAddr,
		timeout: _defaultTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.App = s.initGinServer(env)
	s.server = &http.Server{
		Addr:              s.address,
		Handler:           s.App,
		ReadHeaderTimeout: _defaultReadHeaderTimeout,
	}
	return s
}

func timeoutResponse(c *gin.Context) {
	c.JSON(constant.REQUEST_TIMEOUT.Status, constant.REQUEST_TIMEOUT)
}

func timeoutMiddleware(to time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(to),
		timeout.WithResponse(timeoutResponse),
	)
}

func (s *Server) initGinServer(env *config.Env) *gin.Engine {
	pathPrefix := env.AppConfig.PathPrefix
	if pathPrefix == "" {
		pathPrefix = "/api"
	}
	if env.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(env.AppConfig.TrustedProxies); err != nil {
		zap.L().Warn("Invalid trusted proxies, forwarded headers ignored",
			zap.Strings("trustedProxies", env.AppConfig.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(middleware.CorrelationIDMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())

	if env.MetricsConfig.Enabled {
		m := metrics.GetMonitor(env.MetricsConfig.Path)
		m.Use(r)
	}

	if env.CORSConfig.Enabled {
		corsConfig := cors.Config{
			AllowOrigins:     env.CORSConfig.AllowedOrigins,
			AllowMethods:     env.CORSConfig.AllowedMethods,
			AllowHeaders:     env.CORSConfig.AllowedHeaders,
			ExposeHeaders:    env.CORSConfig.ExposedHeaders,
			AllowCredentials: env.CORSConfig.AllowCredentials,
			MaxAge:           time.Duration(env.CORSConfig.MaxAge) * time.Second,
		}

		r.Use(cors.New(corsConfig))
	}

	if s.timeout > 0 {
		r.Use(timeoutMiddleware(s.timeout))
	}

	// Swagger documentation
	r.GET(pathPrefix+"/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	return r
}

// Start listens on the configured address. Listen errors are reported on Notify.
func (s *Server) Start() {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		s.notify <- err
		close(s.notify)
		return
	}
	s.bound.Store(ln.Addr().String())
	zap.L().Info("HTTP server listening", zap.String("address", s.Addr()))

	go func() {
		err := s.server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.notify <- err
		}
		close(s.notify)
	}()
}

// Addr is the bound address, empty until Start succeeded.
func (s *Server) Addr() string {
	addr, _ := s.bound.Load().(string)
	return addr
}

// Notify -.
func (s *Server) Notify() <-chan error {
	return s.notify
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
