// Package metrics provides an injected, explicitly-scoped recorder for
// development-time diagnostics plus Prometheus instrumentation.
//
// The Recorder keeps an in-memory list of {type, name, duration} records:
// empty at construction, appended by Capture, read by All/ByTypes, fully
// cleared by Clear. It is non-authoritative — each process has its own store
// and nothing is persisted. Capture never fails and never interrupts the
// caller's primary operation.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric is a single captured measurement.
type Metric struct {
	Type     string        `json:"type"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Recorder captures metrics into an in-memory list and mirrors every capture
// into a Prometheus histogram. Construct one per process (or per test) and
// inject it where measurements are taken.
type Recorder struct {
	mu      sync.Mutex
	metrics []Metric

	registry *prometheus.Registry
	observed *prometheus.HistogramVec
}

// NewRecorder creates an empty Recorder with its own Prometheus registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	observed := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bunga",
			Name:      "operation_duration_seconds",
			Help:      "Duration of captured operations in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .5, 1},
		},
		[]string{"type", "name"},
	)
	registry.MustRegister(observed)

	return &Recorder{
		metrics:  make([]Metric, 0),
		registry: registry,
		observed: observed,
	}
}

// Capture appends a measurement. Safe on a nil receiver so callers can be
// wired without a recorder.
func (r *Recorder) Capture(metricType, name string, duration time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.metrics = append(r.metrics, Metric{Type: metricType, Name: name, Duration: duration})
	r.mu.Unlock()

	r.observed.WithLabelValues(metricType, name).Observe(duration.Seconds())
}

// All returns a copy of every captured metric in capture order.
func (r *Recorder) All() []Metric {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Metric, len(r.metrics))
	copy(out, r.metrics)
	return out
}

// ByTypes returns the captured metrics whose Type is one of the given types.
func (r *Recorder) ByTypes(types ...string) []Metric {
	if r == nil {
		return nil
	}
	wanted := make(map[string]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Metric
	for _, m := range r.metrics {
		if _, ok := wanted[m.Type]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Clear drops every captured metric. Prometheus histograms are cumulative by
// design and are not reset.
func (r *Recorder) Clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.metrics = r.metrics[:0]
	r.mu.Unlock()
}

// Handler exposes the recorder's Prometheus registry for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
