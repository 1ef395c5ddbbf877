package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"timed-quiz-service/internal/domain"
)

func TestStoreRoundTripAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quiz.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.Get(ctx, "quizzes"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key not found, got %v", err)
	}
	if err := store.Set(ctx, "quizzes", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "quizzes", []byte(`[{"id":"quiz-1"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, "quizzes")
	if err != nil || string(got) != `[{"id":"quiz-1"}]` {
		t.Fatalf("expected persisted value, got %q (%v)", got, err)
	}
}

func TestStoreKeepsMalformedBytes(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if err := store.Set(ctx, "quizzes", []byte("{broken")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "quizzes")
	if err != nil || string(got) != "{broken" {
		t.Fatalf("expected raw bytes back, got %q (%v)", got, err)
	}
}
