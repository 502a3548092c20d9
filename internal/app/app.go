// Package app wires configuration, storage, auth and transport into a running service.
package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/auth"
	"github.com/duccv/movie-rating-api/internal/repository"
	"github.com/duccv/movie-rating-api/internal/repository/memory"
	mongorepo "github.com/duccv/movie-rating-api/internal/repository/mongo"
	pgrepo "github.com/duccv/movie-rating-api/internal/repository/postgres"
	"github.com/duccv/movie-rating-api/internal/router"
	"github.com/duccv/movie-rating-api/internal/service"
	"github.com/duccv/movie-rating-api/pkg/cache"
	"github.com/duccv/movie-rating-api/pkg/database"
	"github.com/duccv/movie-rating-api/pkg/server"
	grpc_server "github.com/duccv/movie-rating-api/pkg/server/grpc"
	http_server "github.com/duccv/movie-rating-api/pkg/server/http"
)

const primaryDatabase = "primary"

// Run serves until ctx is cancelled, then releases every resource it opened.
func Run(ctx context.Context, env *config.Env) error {
	factory := database.NewDatabaseFactory()
	defer factory.CloseAll(context.WithoutCancel(ctx))

	db, err := factory.CreateDatabase(ctx, primaryDatabase, &env.DatabaseConfig)
	if err != nil {
		return err
	}
	repos, err := repositories(ctx, db)
	if err != nil {
		return err
	}

	privateKey, publicKey, err := auth.LoadKeyPair(
		env.AuthConfig.PrivateKeyPath,
		env.AuthConfig.PublicKeyPath,
		env.AuthConfig.GenerateKeysIfMissing,
	)
	if err != nil {
		return err
	}
	tokenOpts := []auth.TokenOption{auth.WithTTL(env.AuthConfig.TokenTTL), auth.WithIssuer(env.AuthConfig.Issuer)}
	issuer := auth.NewTokenIssuer(privateKey, tokenOpts...)
	verifier := auth.NewTokenVerifier(publicKey, tokenOpts...)

	store, closeCache, err := movieCache(ctx, env)
	if err != nil {
		return err
	}
	defer closeCache()

	accounts := service.NewAccountService(repos.Identities, auth.NewPasswordHasher(env.AuthConfig.BcryptCost), issuer)
	if err := accounts.EnsureAdmin(ctx, env.AuthConfig.BootstrapAdmin); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	httpServer := http_server.New(env,
		http_server.Port(strconv.Itoa(env.AppConfig.Port)),
		http_server.Timeout(env.AppConfig.RequestTimeout),
	)
	router.Register(httpServer.App, env.AppConfig.PathPrefix, router.Dependencies{
		Authenticator: auth.NewAuthenticator(verifier, repos.Identities),
		Accounts:      accounts,
		Movies:        service.NewMovieService(repos, store),
		Ratings:       service.NewRatingService(repos, store),
		Health:        factory,
		RateLimit:     env.RateLimitConfig,
	})

	servers := server.Servers{
		HTTP:            httpServer,
		Health:          factory,
		ShutdownTimeout: env.AppConfig.ShutdownTimeout,
	}
	if env.GRPCConfig.Enabled {
		servers.GRPC = grpc_server.New(grpc_server.Port(strconv.Itoa(env.GRPCConfig.Port)))
	}

	zap.L().Info("Service started",
		zap.String("name", env.AppConfig.Name),
		zap.String("version", env.AppConfig.Version),
		zap.String("database", string(db.GetType())))
	return server.Serve(ctx, servers)
}

func repositories(ctx context.Context, db database.Database) (repository.Repositories, error) {
	switch conn := db.(type) {
	case *database.MongoDB:
		return mongorepo.New(ctx, conn)
	case *database.PostgresDB:
		return pgrepo.New(ctx, conn)
	case *database.MemoryDB:
		return memory.New(), nil
	default:
		return repository.Repositories{}, fmt.Errorf("no repositories for database type %s", db.GetType())
	}
}

// movieCache returns nil when caching is disabled; services then read through.
func movieCache(ctx context.Context, env *config.Env) (*cache.Store, func(), error) {
	if !env.CacheConfig.Enabled {
		return nil, func() {}, nil
	}

	var redisClient *redis.Client
	if env.RedisConfig.Enabled {
		client, err := cache.NewRedisClient(ctx, env.RedisConfig)
		if err != nil {
			return nil, nil, err
		}
		redisClient = client
	}

	store := cache.NewStore(
		cache.NewCache(env.CacheConfig),
		redisClient,
		time.Duration(env.CacheConfig.DefaultTTL)*time.Second,
		time.Duration(env.CacheConfig.RedisTTL)*time.Second,
	)
	return store, func() {
		store.Close()
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				zap.L().Warn("Error closing redis client", zap.Error(err))
			}
		}
	}, nil
}
