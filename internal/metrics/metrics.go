// Package metrics exposes ghostmark's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/ghostmark/internal/bookmarker"
	"github.com/MrSnakeDoc/ghostmark/internal/domain"
)

const namespace = "ghostmark"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Submissions        *prometheus.CounterVec
	SubmissionDuration *prometheus.HistogramVec
	HTTPRequests       *prometheus.CounterVec
	InboxPruned        prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Bookmark submissions by mode, outcome and error code.",
		}, []string{"mode", "outcome", "code"}),
		SubmissionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time from submission to saved post or failure.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"mode"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		InboxPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_pruned_total",
			Help:      "Notifications dropped from the inbox by the pruner.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Submissions,
		m.SubmissionDuration,
		m.HTTPRequests,
		m.InboxPruned,
	)
	return m
}

// ObserveSubmission implements bookmarker.Recorder.
func (m *Metrics) ObserveSubmission(mode bookmarker.Mode, outcome bookmarker.Outcome, code domain.Code, elapsed time.Duration) {
	m.Submissions.WithLabelValues(string(mode), string(outcome), string(code)).Inc()
	m.SubmissionDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

// ObserveRequest counts one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
