package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"timed-quiz-service/internal/app"
)

// CachingStore keeps recently read values in memory with a TTL so repeated
// list views do not hit the backing store. Writes go through to the backing
// store before the cache is refreshed.
type CachingStore struct {
	backing app.KeyValueStore
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedValue
}

type cachedValue struct {
	value     []byte
	expiresAt time.Time
}

func NewCachingStore(backing app.KeyValueStore, ttl time.Duration) *CachingStore {
	return &CachingStore{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedValue),
	}
}

func (c *CachingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := c.lookup(key, c.clock()); ok {
		return append([]byte(nil), value...), nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		if value, ok := c.lookup(key, now); ok {
			return value, nil
		}

		value, err := c.backing.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		c.store(key, append([]byte(nil), value...), now)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), result.([]byte)...), nil
}

func (c *CachingStore) Set(ctx context.Context, key string, value []byte) error {
	if err := c.backing.Set(ctx, key, value); err != nil {
		c.Invalidate(key)
		return err
	}
	c.store(key, append([]byte(nil), value...), c.clock())
	return nil
}

// Invalidate drops key from the cache.
func (c *CachingStore) Invalidate(key string) {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()
}

// lookup returns the cached slice itself; callers copy before handing it out.
func (c *CachingStore) lookup(key string, now time.Time) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.value, true
}

func (c *CachingStore) store(key string, value []byte, now time.Time) {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.cache[key] = cachedValue{value: value, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}

func (c *CachingStore) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
