package memory

import (
	"testing"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

func TestAttemptStoreLifecycle(t *testing.T) {
	store := NewAttemptStore()
	attempt := app.NewAttempt("attempt-1", domain.Quiz{ID: "quiz-1", Duration: 1})

	store.Put(attempt)
	if got, ok := store.Get("attempt-1"); !ok || got != attempt {
		t.Fatalf("expected attempt present")
	}
	if store.Count() != 1 {
		t.Fatalf("expected one attempt, got %d", store.Count())
	}

	store.Delete("attempt-1")
	if _, ok := store.Get("attempt-1"); ok {
		t.Fatalf("expected attempt removed")
	}
}
