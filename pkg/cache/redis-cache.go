package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/config"
)

// NewRedisClient connects in NORMAL (single address) or SENTINEL mode and pings the server.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	var client *redis.Client

	switch strings.ToUpper(cfg.Type) {
	case "", "NORMAL":
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addrs,
			Password: cfg.Password,
		})
	case "SENTINEL":
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			SentinelAddrs: strings.Fields(cfg.Addrs),
			MasterName:    cfg.MasterName,
			Password:      cfg.Password,
			ReadTimeout:   100 * time.Millisecond,
		})
	default:
		return nil, fmt.Errorf("invalid redis type %q: must be NORMAL or SENTINEL", cfg.Type)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	zap.L().Info("Connected to Redis", zap.String("type", cfg.Type), zap.String("addrs", cfg.Addrs))
	return client, nil
}
