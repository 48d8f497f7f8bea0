// Package metrics exposes coaching-loop counters in Prometheus format.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of the coaching loops.
type Metrics struct {
	registry *prometheus.Registry

	remindersFired *prometheus.CounterVec
	tickDuration   prometheus.Histogram
	userErrors     *prometheus.CounterVec
	adaptations    *prometheus.CounterVec
	patterns       *prometheus.CounterVec
	notifications  *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		remindersFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_reminders_fired_total",
			Help: "Reminders handed to the dispatcher.",
		}, []string{"kind", "tone"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coach_tick_duration_seconds",
			Help:    "Wall time of one scheduler tick across all users.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		userErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_user_eval_errors_total",
			Help: "Per-user failures isolated by the loops.",
		}, []string{"stage"}),
		adaptations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_adaptations_total",
			Help: "Adaptation cycles by goal and outcome.",
		}, []string{"goal", "outcome"}),
		patterns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_patterns_recomputed_total",
			Help: "Pattern recomputations by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_notifications_total",
			Help: "Outbound messages by kind and delivery outcome.",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(m.remindersFired, m.tickDuration, m.userErrors, m.adaptations, m.patterns, m.notifications)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ReminderFired(kind, tone string) {
	if m == nil {
		return
	}
	m.remindersFired.WithLabelValues(kind, tone).Inc()
}

func (m *Metrics) TickObserved(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) UserError(stage string) {
	if m == nil {
		return
	}
	m.userErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) Adaptation(goal, outcome string) {
	if m == nil {
		return
	}
	m.adaptations.WithLabelValues(goal, outcome).Inc()
}

func (m *Metrics) PatternRecomputed(outcome string) {
	if m == nil {
		return
	}
	m.patterns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Notification(kind, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, outcome).Inc()
}
