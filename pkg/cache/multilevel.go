package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultRedisTimeout = 50 * time.Millisecond

// Store reads through memory, then Redis, then the loader. Concurrent misses
// for one key share a single load. Redis is optional.
type Store struct {
	mem          Cache
	redis        *redis.Client
	memTTL       time.Duration
	redisTTL     time.Duration
	redisTimeout time.Duration

	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]*pendingLoad
}

// pendingLoad tracks loads of one key. gen moves when the key is invalidated
// while a load runs; the entry is dropped once no load is left.
type pendingLoad struct {
	loads int
	gen   uint64
}

func NewStore(mem Cache, redisClient *redis.Client, memTTL, redisTTL time.Duration) *Store {
	return &Store{
		mem:          mem,
		redis:        redisClient,
		memTTL:       memTTL,
		redisTTL:     redisTTL,
		redisTimeout: defaultRedisTimeout,
		inflight:     make(map[string]*pendingLoad),
	}
}

func (s *Store) beginLoad(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.inflight[key]
	if !ok {
		p = &pendingLoad{}
		s.inflight[key] = p
	}
	p.loads++
	return p.gen
}

// endLoad reports whether key was left untouched since beginLoad returned gen.
func (s *Store) endLoad(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.inflight[key]
	fresh := p.gen == gen
	if p.loads--; p.loads == 0 {
		delete(s.inflight, key)
	}
	return fresh
}

// GetOrLoad returns the cached T for key or calls load and caches its result.
// A nil store disables caching. Values loaded while an Invalidate for the same
// key ran are returned but not cached.
func GetOrLoad[T any](ctx context.Context, s *Store, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if s == nil {
		return load(ctx)
	}

	if v, ok := s.mem.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		if v, ok := s.mem.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}

		if value, ok := getRedis[T](ctx, s, key); ok {
			s.mem.SetWithTTL(key, value, s.memTTL)
			return value, nil
		}

		var fresh bool
		value, err := func() (T, error) {
			gen := s.beginLoad(key)
			defer func() { fresh = s.endLoad(key, gen) }()
			return load(ctx)
		}()
		if err != nil {
			return nil, err
		}
		if fresh {
			s.mem.SetWithTTL(key, value, s.memTTL)
			s.setRedis(ctx, key, value)
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func getRedis[T any](ctx context.Context, s *Store, key string) (T, bool) {
	var value T
	if s.redis == nil {
		return value, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.redisTimeout)
	defer cancel()

	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Debug("Redis cache read failed", zap.String("key", key), zap.Error(err))
		}
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		zap.L().Warn("Discarding undecodable redis cache entry", zap.String("key", key), zap.Error(err))
		return value, false
	}
	return value, true
}

func (s *Store) setRedis(ctx context.Context, key string, value any) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.redisTimeout)
	defer cancel()
	if err := s.redis.Set(ctx, key, data, s.redisTTL).Err(); err != nil {
		zap.L().Debug("Redis cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops keys from both levels.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if s == nil || len(keys) == 0 {
		return
	}

	s.mu.Lock()
	for _, key := range keys {
		if p, ok := s.inflight[key]; ok {
			p.gen++
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.mem.Delete(key)
		s.group.Forget(key)
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.redisTimeout)
		defer cancel()
		if err := s.redis.Del(ctx, keys...).Err(); err != nil {
			zap.L().Warn("Redis cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
		}
	}
}

func (s *Store) Close() {
	if s == nil {
		return
	}
	s.mem.Stop()
}
