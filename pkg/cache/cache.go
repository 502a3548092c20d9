// Package cache provides an in-process TTL cache with LRU or FIFO eviction
// and a two-level read-through loader backed by Redis.
package cache

import (
	"time"

	"github.com/duccv/movie-rating-api/config"
)

// Cache is safe for concurrent use.
type Cache interface {
	// Get returns the value and whether it was present and unexpired.
	Get(key string) (any, bool)
	// Set stores value with the default TTL.
	Set(key string, value any)
	SetWithTTL(key string, value any, ttl time.Duration)
	Delete(key string)
	Size() int
	MaxSize() int
	Clear()
	// Stop ends the background cleanup goroutine. Safe to call more than once.
	Stop()
}

type Policy string

const (
	LRU  Policy = "LRU"
	FIFO Policy = "FIFO"
)

// NewCache builds a memory cache from configuration. Unknown types fall back to LRU.
func NewCache(cfg config.CacheConfig) Cache {
	policy := Policy(cfg.Type)
	if policy != FIFO {
		policy = LRU
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1000
	}
	return NewMemoryCache(policy, capacity, time.Duration(cfg.DefaultTTL)*time.Second)
}
