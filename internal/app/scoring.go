package app

import (
	"strings"

	"timed-quiz-service/internal/domain"
)

// Score sums the points of every question answered exactly right.
// Missing selections or text responses count as unanswered.
func Score(quiz domain.Quiz, selections map[string][]string, textResponses map[string]string) int {
	total := 0
	for _, question := range quiz.Questions {
		if questionCorrect(question, selections, textResponses) {
			total += question.Points
		}
	}
	return total
}

// MaxScore is the score of a fully correct attempt.
func MaxScore(quiz domain.Quiz) int {
	total := 0
	for _, question := range quiz.Questions {
		total += question.Points
	}
	return total
}

func questionCorrect(question domain.Question, selections map[string][]string, textResponses map[string]string) bool {
	switch question.Type {
	case domain.SingleChoice:
		selected := selections[question.ID]
		if len(selected) == 0 {
			return false
		}
		correctID, ok := firstCorrectAnswer(question)
		return ok && selected[0] == correctID
	case domain.MultipleChoice:
		if len(question.Answers) == 0 {
			return false
		}
		return sameSet(selections[question.ID], correctAnswerIDs(question))
	case domain.TextInput:
		response, ok := textResponses[question.ID]
		if !ok || question.ModelAnswer == nil {
			return false
		}
		// Case-insensitive, surrounding whitespace is significant.
		return strings.ToLower(response) == strings.ToLower(*question.ModelAnswer)
	default:
		return false
	}
}

func firstCorrectAnswer(q domain.Question) (string, bool) {
	for _, answer := range q.Answers {
		if answer.IsCorrect {
			return answer.ID, true
		}
	}
	return "", false
}

func correctAnswerIDs(q domain.Question) []string {
	ids := make([]string, 0, len(q.Answers))
	for _, answer := range q.Answers {
		if answer.IsCorrect {
			ids = append(ids, answer.ID)
		}
	}
	return ids
}

func sameSet(selected, correct []string) bool {
	want := make(map[string]struct{}, len(correct))
	for _, id := range correct {
		want[id] = struct{}{}
	}
	got := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := want[id]; !ok {
			return false
		}
		got[id] = struct{}{}
	}
	return len(got) == len(want)
}
