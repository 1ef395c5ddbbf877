package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"timed-quiz-service/internal/domain"
)

func TestAttemptsCounters(t *testing.T) {
	m := NewAttempts()

	m.AttemptStarted("quiz-1")
	m.AttemptStarted("quiz-1")
	m.AttemptGraded(domain.AttemptState{GradedBy: domain.TriggerTimeUp})
	m.AttemptClosed("quiz-1")

	body := scrape(t, m)
	for _, want := range []string{
		`quiz_attempts_started_total{quiz_id="quiz-1"} 2`,
		`quiz_attempts_graded_total{trigger="time_up"} 1`,
		`quiz_attempts_active 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, body)
		}
	}
}

func scrape(t *testing.T, m *Attempts) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}
