package domain

// Phase is the lifecycle stage of an attempt.
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseGraded     Phase = "graded"
)

// GradeTrigger records what moved an attempt into the graded phase.
type GradeTrigger string

const (
	TriggerSubmit GradeTrigger = "submit"
	TriggerTimeUp GradeTrigger = "time_up"
)

// AttemptState is an immutable snapshot of an attempt handed to observers.
type AttemptState struct {
	AttemptID        string              `json:"attemptId"`
	QuizID           string              `json:"quizId"`
	Title            string              `json:"title"`
	Phase            Phase               `json:"phase"`
	CurrentIndex     int                 `json:"currentIndex"`
	QuestionCount    int                 `json:"questionCount"`
	RemainingSeconds int                 `json:"remainingSeconds"`
	Selections       map[string][]string `json:"selections"`
	TextResponses    map[string]string   `json:"textResponses"`
	Score            *int                `json:"score,omitempty"`
	MaxScore         int                 `json:"maxScore"`
	GradedBy         GradeTrigger        `json:"gradedBy,omitempty"`
	Closed           bool                `json:"closed"`
}

// CanGoNext reports whether Next would move the pointer.
func (s AttemptState) CanGoNext() bool {
	return s.Phase == PhaseInProgress && s.CurrentIndex < s.QuestionCount-1
}

// CanGoPrevious reports whether Previous would move the pointer.
func (s AttemptState) CanGoPrevious() bool {
	return s.Phase == PhaseInProgress && s.CurrentIndex > 0
}
