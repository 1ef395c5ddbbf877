package app_test

import (
	"context"
	"errors"
	"testing"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
)

func TestRepositoryMissingKeyIsEmpty(t *testing.T) {
	repo := app.NewRepository(memory.NewStore(), "", nil)

	quizzes, err := repo.LoadAll(context.Background())
	if err != nil || quizzes == nil || len(quizzes) != 0 {
		t.Fatalf("expected empty non-nil collection, got %v (%v)", quizzes, err)
	}
}

func TestRepositoryMalformedDataIsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"not json", `{"id":"x"}`, `[{"id":`} {
		store := memory.NewStore()
		_ = store.Set(ctx, "custom", []byte(raw))
		repo := app.NewRepository(store, "custom", nil)

		quizzes, err := repo.LoadAll(ctx)
		if err != nil || len(quizzes) != 0 {
			t.Fatalf("%q: expected empty collection, got %v (%v)", raw, quizzes, err)
		}
	}
}

func TestRepositorySaveLoadFind(t *testing.T) {
	ctx := context.Background()
	repo := app.NewRepository(memory.NewStore(), "", nil)
	model := "Paris"
	quizzes := []domain.Quiz{
		mixedQuiz(),
		{ID: "quiz-2", Title: "Text", Duration: 2, Questions: []domain.Question{
			{ID: "t1", Type: domain.TextInput, Points: 1, ModelAnswer: &model},
		}},
	}

	if err := repo.SaveAll(ctx, quizzes); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := repo.LoadAll(ctx)
	if err != nil || len(loaded) != 2 || loaded[0].ID != quizzes[0].ID {
		t.Fatalf("expected collection back in order, got %+v (%v)", loaded, err)
	}

	found, err := repo.FindByID(ctx, "quiz-2")
	if err != nil || found.Questions[0].ModelAnswer == nil || *found.Questions[0].ModelAnswer != "Paris" {
		t.Fatalf("expected model answer preserved, got %+v (%v)", found, err)
	}
	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := repo.SaveAll(ctx, nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if loaded, _ := repo.LoadAll(ctx); len(loaded) != 0 {
		t.Fatalf("expected empty after replace, got %d", len(loaded))
	}
}

func TestRepositoryPropagatesStoreErrors(t *testing.T) {
	repo := app.NewRepository(failingStore{}, "", nil)
	if _, err := repo.LoadAll(context.Background()); err == nil {
		t.Fatalf("expected store error")
	}
	if err := repo.SaveAll(context.Background(), nil); err == nil {
		t.Fatalf("expected store error")
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("connection refused")
}
