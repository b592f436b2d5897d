// Package metrics provides Prometheus metrics for the summeval dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Recorder owns a registry and the collectors registered on it
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	evaluations         *prometheus.CounterVec
	evaluationDuration  prometheus.Histogram
	scores              *prometheus.HistogramVec
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option configures a Recorder
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for latency histograms
func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors
func WithRuntimeCollectors() Option {
	return func(r *Recorder) {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewRecorder creates a Recorder with its own registry
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "summeval",
		buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	factory := promauto.With(r.registry)
	r.evaluations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "evaluations_total",
		Help:      "Summary evaluations by outcome.",
	}, []string{"outcome"})
	r.evaluationDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "evaluation_duration_seconds",
		Help:      "Time spent computing all metrics of one evaluation.",
		Buckets:   r.buckets,
	})
	r.scores = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "metric_score",
		Help:      "Distribution of computed metric values.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"metric"})
	r.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})
	r.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   r.buckets,
	}, []string{"route"})

	return r
}

// ObserveEvaluation records the outcome and latency of one evaluation
func (r *Recorder) ObserveEvaluation(outcome string, d time.Duration) {
	r.evaluations.WithLabelValues(outcome).Inc()
	if outcome != OutcomeInvalid {
		r.evaluationDuration.Observe(d.Seconds())
	}
}

// ObserveScore records one metric value
func (r *Recorder) ObserveScore(metric string, value float64) {
	r.scores.WithLabelValues(metric).Observe(value)
}

// ObserveRequest records one served HTTP request
func (r *Recorder) ObserveRequest(method, route string, code int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
