package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"timed-quiz-service/internal/domain"
)

// DefaultCollectionKey is where the quiz collection lives in the key-value store.
const DefaultCollectionKey = "quizzes"

// KeyValueStore abstracts where serialized state lives (memory, Redis, Postgres, SQLite).
// Get returns domain.ErrKeyNotFound when nothing is stored under key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repository stores the whole quiz collection as one JSON document.
type Repository struct {
	store  KeyValueStore
	key    string
	logger *zap.Logger
}

func NewRepository(store KeyValueStore, key string, logger *zap.Logger) *Repository {
	if key == "" {
		key = DefaultCollectionKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: store, key: key, logger: logger}
}

// LoadAll returns the stored quizzes in order. A missing or unparsable
// collection reads as empty.
func (r *Repository) LoadAll(ctx context.Context) ([]domain.Quiz, error) {
	raw, err := r.store.Get(ctx, r.key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return []domain.Quiz{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}

	var quizzes []domain.Quiz
	if err := json.Unmarshal(raw, &quizzes); err != nil {
		r.logger.Warn("stored quiz collection is malformed, treating as empty",
			zap.String("key", r.key), zap.Error(err))
		return []domain.Quiz{}, nil
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	return quizzes, nil
}

// SaveAll replaces the stored collection.
func (r *Repository) SaveAll(ctx context.Context, quizzes []domain.Quiz) error {
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	data, err := json.Marshal(quizzes)
	if err != nil {
		return fmt.Errorf("marshal quizzes: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save quizzes: %w", err)
	}
	return nil
}

// FindByID returns the quiz with id or domain.ErrQuizNotFound.
func (r *Repository) FindByID(ctx context.Context, id string) (domain.Quiz, error) {
	quizzes, err := r.LoadAll(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	for _, quiz := range quizzes {
		if quiz.ID == id {
			return quiz, nil
		}
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}
