package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
)

func TestStoreWithoutBackingPersistsInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(newClient(mr), nil, time.Minute)

	if _, err := store.Get(ctx, "quizzes"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key not found, got %v", err)
	}
	if err := store.Set(ctx, "quizzes", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("quiz:kv:quizzes"); got != "[]" {
		t.Fatalf("expected value in redis, got %q", got)
	}
	if ttl := mr.TTL("quiz:kv:quizzes"); ttl != 0 {
		t.Fatalf("expected no expiry for store of record, got %v", ttl)
	}
}

func TestStoreCachesBackingInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	backing := &countingStore{Store: memory.NewStore()}
	_ = backing.Store.Set(ctx, "quizzes", []byte(`[{"id":"quiz-1"}]`))
	store := NewStore(newClient(mr), backing, time.Minute)

	got, err := store.Get(ctx, "quizzes")
	if err != nil || string(got) != `[{"id":"quiz-1"}]` {
		t.Fatalf("get: %q (%v)", got, err)
	}
	if backing.calls != 1 {
		t.Fatalf("expected backing called once, got %d", backing.calls)
	}

	// Second call should hit cache, backing not incremented.
	_, _ = store.Get(ctx, "quizzes")
	if backing.calls != 1 {
		t.Fatalf("expected cache hit, backing calls=%d", backing.calls)
	}
	if ttl := mr.TTL("quiz:kv:quizzes"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}
}

func TestStoreWritesThroughToBacking(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	backing := &countingStore{Store: memory.NewStore()}
	store := NewStore(newClient(mr), backing, time.Minute)

	if _, err := store.Get(ctx, "quizzes"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key not found from backing, got %v", err)
	}
	if err := store.Set(ctx, "quizzes", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if stored, err := backing.Store.Get(ctx, "quizzes"); err != nil || string(stored) != "[]" {
		t.Fatalf("expected backing updated, got %q (%v)", stored, err)
	}
	if !mr.Exists("quiz:kv:quizzes") {
		t.Fatalf("expected redis refreshed after write")
	}
}

type countingStore struct {
	*memory.Store
	calls int
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.calls++
	return s.Store.Get(ctx, key)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
