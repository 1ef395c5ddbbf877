package app

import "github.com/google/uuid"

// NewID returns an opaque random identifier for quizzes, questions, answers and attempts.
func NewID() string {
	return uuid.NewString()
}
