package domain

import "fmt"

// QuestionType selects how a question is answered and scored.
type QuestionType string

const (
	SingleChoice   QuestionType = "single-choice"
	MultipleChoice QuestionType = "multiple-choice"
	TextInput      QuestionType = "text-input"
)

// ParseQuestionType validates a raw question type value.
func ParseQuestionType(raw string) (QuestionType, error) {
	switch t := QuestionType(raw); t {
	case SingleChoice, MultipleChoice, TextInput:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQuestionType, raw)
}

// IsChoice reports whether answers are picked from a list.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice
}

// Answer is a selectable option of a choice question.
type Answer struct {
	ID        string `json:"id"`
	Text      string `json:"answerText"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models a single quiz question. Answers is empty for text input
// questions and ModelAnswer is only meaningful for them.
type Question struct {
	ID          string       `json:"id"`
	Text        string       `json:"questionText"`
	Type        QuestionType `json:"questionType"`
	Points      int          `json:"points"`
	Answers     []Answer     `json:"answers"`
	ModelAnswer *string      `json:"modelAnswer,omitempty"`
}

// WithType returns a copy of the question switched to t. Choice types without
// answers get one empty answer (id from newID); text input keeps or initialises
// the model answer, other types drop it.
func (q Question) WithType(t QuestionType, newID func() string) Question {
	out := q
	out.Type = t
	out.Answers = append([]Answer(nil), q.Answers...)
	if t.IsChoice() && len(out.Answers) == 0 {
		out.Answers = []Answer{{ID: newID()}}
	}
	if t == TextInput {
		model := ""
		if q.ModelAnswer != nil {
			model = *q.ModelAnswer
		}
		out.ModelAnswer = &model
	} else {
		out.ModelAnswer = nil
	}
	return out
}

// Quiz is a titled, timed collection of ordered questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Duration  int        `json:"duration"` // minutes
	Questions []Question `json:"questions"`
}

// QuestionIndex returns the position of the question with id, or -1.
func (q Quiz) QuestionIndex(id string) int {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone deep-copies the quiz so attempts can hold an immutable snapshot.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		c := question
		c.Answers = append([]Answer(nil), question.Answers...)
		if question.ModelAnswer != nil {
			model := *question.ModelAnswer
			c.ModelAnswer = &model
		}
		out.Questions[i] = c
	}
	return out
}
