package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/metrics"
)

func TestQuizCRUD(t *testing.T) {
	service, _ := newTestService()
	router := NewRouter(RouterConfig{Service: service})

	rec := do(t, router, http.MethodPost, "/api/quizzes", `{"title":"Capitals","questions":[{"questionText":"Capital of Spain?","questionType":"text-input","modelAnswer":"Madrid"}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var created domain.Quiz
	decode(t, rec, &created)
	if created.ID == "" || created.Duration != 30 || created.Questions[0].Points != 1 {
		t.Fatalf("expected defaults applied, got %+v", created)
	}

	rec = do(t, router, http.MethodGet, "/api/quizzes/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	created.Title = "European Capitals"
	body, _ := json.Marshal(created)
	rec = do(t, router, http.MethodPut, "/api/quizzes/"+created.ID, string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/quizzes?search=europe", "")
	var found []domain.Quiz
	decode(t, rec, &found)
	if len(found) != 1 || found[0].Title != "European Capitals" {
		t.Fatalf("expected search hit, got %+v", found)
	}

	rec = do(t, router, http.MethodDelete, "/api/quizzes/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/api/quizzes", "")
	var all []domain.Quiz
	decode(t, rec, &all)
	if len(all) != 0 {
		t.Fatalf("expected empty list, got %d", len(all))
	}
}

func TestUnknownQuizRedirectsToList(t *testing.T) {
	service, _ := newTestService()
	router := NewRouter(RouterConfig{Service: service})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/quizzes/missing", ""},
		{http.MethodPut, "/api/quizzes/missing", `{"title":"x"}`},
		{http.MethodDelete, "/api/quizzes/missing", ""},
	} {
		rec := do(t, router, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != ListPath {
			t.Fatalf("%s %s: expected redirect to list, got %d %q", tc.method, tc.path, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestChangeQuestionTypeEndpoint(t *testing.T) {
	service, _ := newTestService()
	quiz := createSampleQuiz(t, service)
	router := NewRouter(RouterConfig{Service: service})

	rec := do(t, router, http.MethodPut, "/api/quizzes/"+quiz.ID+"/questions/q1/type", `{"questionType":"text-input"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var updated domain.Quiz
	decode(t, rec, &updated)
	q := updated.Questions[0]
	if q.Type != domain.TextInput || q.ModelAnswer == nil || *q.ModelAnswer != "" {
		t.Fatalf("expected text input with empty model answer, got %+v", q)
	}

	rec = do(t, router, http.MethodPut, "/api/quizzes/"+quiz.ID+"/questions/q1/type", `{"questionType":"essay"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid type, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPut, "/api/quizzes/"+quiz.ID+"/questions/nope/type", `{"questionType":"single-choice"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown question, got %d", rec.Code)
	}
}

func TestInvalidPayloadRejected(t *testing.T) {
	service, _ := newTestService()
	router := NewRouter(RouterConfig{Service: service})

	rec := do(t, router, http.MethodPost, "/api/quizzes", `{"title":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAttemptEndpoint(t *testing.T) {
	service, _ := newTestService()
	router := NewRouter(RouterConfig{Service: service})

	rec := do(t, router, http.MethodGet, "/api/attempts/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown attempt, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	service, _ := newTestService()
	router := NewRouter(RouterConfig{Service: service, Metrics: metrics.NewAttempts().Handler()})

	rec := do(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "quiz_attempts_active") {
		t.Fatalf("expected metrics output, got %d", rec.Code)
	}
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
