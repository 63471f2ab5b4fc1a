// Package metrics owns the Prometheus registry and the collectors shared by the
// API and the detection scheduler
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

const namespace = "arguxai"

// Registry is private to the process so tests can gather from it without global collectors
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

var factory = promauto.With(Registry)

var (
	// CyclesTotal counts detection cycles by trigger (schedule, manual)
	CyclesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "detect",
		Name:      "cycles_total",
		Help:      "Detection cycles run.",
	}, []string{"trigger"})

	// CycleDuration observes whole cycle wall time
	CycleDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "detect",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one detection cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	// StepOutcomes counts per step results
	StepOutcomes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "detect",
		Name:      "step_outcomes_total",
		Help:      "Per funnel step outcomes of detection cycles.",
	}, []string{"funnel_step", "status", "reason"})

	// ConversionRate is the last computed rate per step and window (recent, baseline)
	ConversionRate = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "detect",
		Name:      "conversion_rate_percent",
		Help:      "Last computed conversion rate.",
	}, []string{"funnel_step", "window"})

	// Sigma is the last computed significance per step
	Sigma = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "detect",
		Name:      "sigma",
		Help:      "Last computed two proportion z value.",
	}, []string{"funnel_step"})

	// IssuesCreated counts new issues by severity
	IssuesCreated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "issues",
		Name:      "created_total",
		Help:      "Issues created from escalated anomalies.",
	}, []string{"severity"})

	// EventsIngested counts ingested events by result (accepted, rejected)
	EventsIngested = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "ingested_total",
		Help:      "Events received on the ingest endpoint.",
	}, []string{"result"})

	// Diagnoses counts AI diagnosis attempts by result (ok, error)
	Diagnoses = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "diagnosis",
		Name:      "requests_total",
		Help:      "AI diagnosis attempts.",
	}, []string{"result"})

	// DiagnosisDuration observes model latency
	DiagnosisDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "diagnosis",
		Name:      "duration_seconds",
		Help:      "AI diagnosis latency.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	})

	// HTTPRequests counts served requests
	HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "route", "code"})

	// HTTPDuration observes handler latency
	HTTPDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP handler latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// ObserveHTTP records one finished request; route should be the pattern, not the raw path
func ObserveHTTP(method, route string, code int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Since is a small helper for deferred histogram observations
func Since(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
