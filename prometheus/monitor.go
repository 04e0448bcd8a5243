// Package prometheus aggregates per-host fetch metrics and exposes them as
// Prometheus collectors.
package prometheus

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fwojciec/lectern"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ensure Monitor implements lectern.Monitor at compile time.
var _ lectern.Monitor = (*Monitor)(nil)

// Monitor keeps a per-host snapshot of fetch outcomes and mirrors every
// observation into collectors on its own registry.
type Monitor struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	mu    sync.Mutex
	stats map[string]*lectern.DomainStats
}

// NewMonitor constructs a Monitor and registers its collectors on a
// dedicated registry.
func NewMonitor() *Monitor {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_fetch_requests_total",
			Help: "Fetch attempts by host and outcome.",
		},
		[]string{"host", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lectern_fetch_duration_seconds",
			Help:    "Fetch attempt latency by host.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	registry.MustRegister(requests, duration)

	return &Monitor{
		Registry: registry,
		requests: requests,
		duration: duration,
		stats:    make(map[string]*lectern.DomainStats),
	}
}

// Observe records one fetch attempt.
func (m *Monitor) Observe(host string, latency time.Duration, outcome lectern.Outcome) {
	m.requests.WithLabelValues(host, string(outcome)).Inc()
	m.duration.WithLabelValues(host).Observe(latency.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[host]
	if !ok {
		s = &lectern.DomainStats{Host: host}
		m.stats[host] = s
	}
	s.Requests++
	s.LatencySum += latency
	switch outcome {
	case lectern.OutcomeSuccess:
		s.Successes++
	case lectern.OutcomeTimeout:
		s.Timeouts++
	default:
		s.Failures++
	}
}

// Stats returns a snapshot of all hosts ordered by host name.
func (m *Monitor) Stats() []lectern.DomainStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]lectern.DomainStats, 0, len(m.stats))
	for _, s := range m.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out
}

// Reset clears the snapshot. Prometheus counters keep their totals.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = make(map[string]*lectern.DomainStats)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// CounterFor returns the request counter for one host and outcome.
func (m *Monitor) CounterFor(host string, outcome lectern.Outcome) prometheus.Counter {
	return m.requests.WithLabelValues(host, string(outcome))
}
