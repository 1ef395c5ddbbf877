package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timed-quiz-service/internal/domain"
)

// Attempts records attempt lifecycle counters. It satisfies app.AttemptObserver.
type Attempts struct {
	registry *prometheus.Registry
	started  *prometheus.CounterVec
	graded   *prometheus.CounterVec
	active   prometheus.Gauge
}

// NewAttempts registers the attempt collectors on a fresh registry.
func NewAttempts() *Attempts {
	m := &Attempts{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_started_total",
				Help: "Total number of quiz attempts started",
			},
			[]string{"quiz_id"},
		),
		graded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_graded_total",
				Help: "Total number of quiz attempts graded, by trigger",
			},
			[]string{"trigger"},
		),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_attempts_active",
			Help: "Attempts currently open",
		}),
	}
	m.registry.MustRegister(m.started, m.graded, m.active)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *Attempts) AttemptStarted(quizID string) {
	m.started.WithLabelValues(quizID).Inc()
	m.active.Inc()
}

func (m *Attempts) AttemptGraded(state domain.AttemptState) {
	m.graded.WithLabelValues(string(state.GradedBy)).Inc()
}

func (m *Attempts) AttemptClosed(string) {
	m.active.Dec()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Attempts) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
