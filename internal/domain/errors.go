package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz id is absent from the stored collection.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question id is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound is returned when an attempt id is unknown or was closed.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrKeyNotFound is returned by key-value stores when nothing is stored under a key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvalidQuestionType indicates an unsupported question type value.
	ErrInvalidQuestionType = errors.New("invalid question type")
)
