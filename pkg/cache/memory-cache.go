package cache

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"
)

const cleanupInterval = 3 * time.Second

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// MemoryCache keeps entries in a list ordered for eviction. Under LRU a read
// moves the entry to the back; under FIFO only insertion order counts.
// The front of the list is evicted when capacity is reached.
type MemoryCache struct {
	policy     Policy
	maxSize    int
	defaultTTL time.Duration

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List
	now   func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

func NewMemoryCache(policy Policy, maxSize int, defaultTTL time.Duration) *MemoryCache {
	c := &MemoryCache{
		policy:     policy,
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.removeExpired(); n > 0 {
				zap.L().Debug("Cleaned up expired cache entries",
					zap.String("policy", string(c.policy)),
					zap.Int("count", n))
			}
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) removeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for e := c.order.Front(); e != nil; {
		next := e.Next()
		if now.After(e.Value.(*entry).expiresAt) {
			c.removeElement(e)
			removed++
		}
		e = next
	}
	return removed
}

func (c *MemoryCache) removeElement(e *list.Element) {
	c.order.Remove(e)
	delete(c.items, e.Value.(*entry).key)
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	item := e.Value.(*entry)
	if c.now().After(item.expiresAt) {
		c.removeElement(e)
		return nil, false
	}
	if c.policy == LRU {
		c.order.MoveToBack(e)
	}
	return item.value, true
}

func (c *MemoryCache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

func (c *MemoryCache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if e, ok := c.items[key]; ok {
		item := e.Value.(*entry)
		item.value = value
		item.expiresAt = expiresAt
		if c.policy == LRU {
			c.order.MoveToBack(e)
		}
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			c.removeElement(oldest)
		}
	}
	c.items[key] = c.order.PushBack(&entry{key: key, value: value, expiresAt: expiresAt})
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.removeElement(e)
	}
}

func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *MemoryCache) MaxSize() int {
	return c.maxSize
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}

func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
