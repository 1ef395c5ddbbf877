package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"timed-quiz-service/internal/app"
)

// RouterConfig carries what NewRouter wires together.
type RouterConfig struct {
	Service        *app.QuizService
	Logger         *zap.Logger
	Metrics        http.Handler
	AllowedOrigins []string
}

// NewRouter builds the REST and WebSocket surface behind CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	quizzes := NewQuizHandler(cfg.Service, cfg.Logger)
	take := NewWSHandler(cfg.Service, cfg.Logger)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/quizzes", quizzes.List).Methods(http.MethodGet)
	api.HandleFunc("/quizzes", quizzes.Create).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}", quizzes.Get).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id}", quizzes.Update).Methods(http.MethodPut)
	api.HandleFunc("/quizzes/{id}", quizzes.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/quizzes/{id}/questions/{questionId}/type", quizzes.ChangeQuestionType).Methods(http.MethodPut)
	api.HandleFunc("/attempts/{id}", quizzes.Attempt).Methods(http.MethodGet)

	router.HandleFunc("/ws/take/{quizId}", take.ServeTake)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"Content-Length", "Location"},
		MaxAge:         300,
	})
	return corsMiddleware.Handler(router)
}
