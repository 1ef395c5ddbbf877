package redis

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// Store keeps values in Redis under quiz:kv:{key}.
//
// Without a backing store Redis is the store of record and values never expire.
// With one, Redis acts as a read-through cache: misses are loaded from the
// backing store and cached for ttl (plus jitter), writes go to the backing
// store first.
type Store struct {
	client  *redis.Client
	backing app.KeyValueStore
	ttl     time.Duration
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewStore(client *redis.Client, backing app.KeyValueStore, ttl time.Duration) *Store {
	return &Store{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}
	if s.backing == nil {
		return nil, domain.ErrKeyNotFound
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if value, err := s.client.Get(ctx, s.key(key)).Bytes(); err == nil {
			return value, nil
		}
		value, err := s.backing.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		_ = s.client.Set(ctx, s.key(key), value, s.ttlWithJitter()).Err()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.backing == nil {
		return s.client.Set(ctx, s.key(key), value, 0).Err()
	}
	if err := s.backing.Set(ctx, key, value); err != nil {
		_ = s.client.Del(ctx, s.key(key)).Err()
		return err
	}
	// best-effort refresh; a stale entry is dropped instead
	if err := s.client.Set(ctx, s.key(key), value, s.ttlWithJitter()).Err(); err != nil {
		_ = s.client.Del(ctx, s.key(key)).Err()
	}
	return nil
}

func (s *Store) key(key string) string {
	return "quiz:kv:" + key
}

func (s *Store) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
