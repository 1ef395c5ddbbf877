package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if _, err := store.Get(ctx, "quizzes"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key not found, got %v", err)
	}
	value := []byte(`[]`)
	if err := store.Set(ctx, "quizzes", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'x'
	got, err := store.Get(ctx, "quizzes")
	if err != nil || string(got) != "[]" {
		t.Fatalf("expected stored copy, got %q (%v)", got, err)
	}
}

func TestCachingStoreCaches(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: NewStore()}
	_ = backing.Store.Set(ctx, "quizzes", []byte(`[]`))
	cache := NewCachingStore(backing, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := cache.Get(ctx, "quizzes"); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	if backing.getCalls() != 1 {
		t.Fatalf("expected backing store read once, got %d", backing.getCalls())
	}
}

func TestCachingStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: NewStore()}
	_ = backing.Store.Set(ctx, "quizzes", []byte(`[]`))
	cache := NewCachingStore(backing, time.Minute)

	first, err := cache.Get(ctx, "quizzes")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first[0] = 'x'
	second, err := cache.Get(ctx, "quizzes")
	if err != nil || string(second) != "[]" {
		t.Fatalf("cache entry changed by caller: %q (%v)", second, err)
	}
	second[1] = 'y'
	if third, _ := cache.Get(ctx, "quizzes"); string(third) != "[]" {
		t.Fatalf("cache entry changed by caller on hit: %q", third)
	}
	if backing.getCalls() != 1 {
		t.Fatalf("expected hits from cache, got %d backing reads", backing.getCalls())
	}
}

func TestCachingStoreExpires(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: NewStore()}
	_ = backing.Store.Set(ctx, "quizzes", []byte(`[]`))
	cache := NewCachingStore(backing, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	_, _ = cache.Get(ctx, "quizzes")
	now = now.Add(2 * time.Minute)
	_, _ = cache.Get(ctx, "quizzes")
	if backing.getCalls() != 2 {
		t.Fatalf("expected reload after ttl, got %d reads", backing.getCalls())
	}
}

func TestCachingStoreWritesThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: NewStore()}
	cache := NewCachingStore(backing, time.Minute)

	if _, err := cache.Get(ctx, "quizzes"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key not found, got %v", err)
	}
	if err := cache.Set(ctx, "quizzes", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	stored, err := backing.Store.Get(ctx, "quizzes")
	if err != nil || string(stored) != `[{"id":"a"}]` {
		t.Fatalf("expected write-through, got %q (%v)", stored, err)
	}
	got, _ := cache.Get(ctx, "quizzes")
	if string(got) != `[{"id":"a"}]` || backing.getCalls() != 1 {
		t.Fatalf("expected cached value after set, got %q with %d reads", got, backing.getCalls())
	}
}

func TestCachingStoreDropsEntryOnFailedWrite(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{Store: NewStore()}
	_ = backing.Store.Set(ctx, "quizzes", []byte(`[]`))
	cache := NewCachingStore(backing, time.Minute)
	_, _ = cache.Get(ctx, "quizzes")

	backing.failSet = errors.New("disk full")
	if err := cache.Set(ctx, "quizzes", []byte(`[{"id":"a"}]`)); err == nil {
		t.Fatalf("expected write error")
	}
	_, _ = cache.Get(ctx, "quizzes")
	if backing.getCalls() != 2 {
		t.Fatalf("expected cache invalidated after failed write, got %d reads", backing.getCalls())
	}
}

type countingStore struct {
	*Store
	mu      sync.Mutex
	gets    int
	failSet error
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.Store.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet != nil {
		return s.failSet
	}
	return s.Store.Set(ctx, key, value)
}

func (s *countingStore) getCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}
