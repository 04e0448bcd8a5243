package lectern

import "time"

// Outcome classifies a single fetch attempt for monitoring.
type Outcome string

// Fetch outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// DomainStats aggregates fetch metrics for one host.
// The counters are diagnostic only and not authoritative.
type DomainStats struct {
	Host       string        `json:"host"`
	Requests   int64         `json:"requests"`
	Successes  int64         `json:"successes"`
	Failures   int64         `json:"failures"`
	Timeouts   int64         `json:"timeouts"`
	LatencySum time.Duration `json:"latencySum"`
}

// AverageLatency returns the mean latency over all requests.
func (s DomainStats) AverageLatency() time.Duration {
	if s.Requests == 0 {
		return 0
	}
	return s.LatencySum / time.Duration(s.Requests)
}

// SuccessRate returns successes divided by requests, or 0 with no requests.
func (s DomainStats) SuccessRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Requests)
}

// Monitor aggregates per-host fetch metrics.
type Monitor interface {
	// Observe records one fetch attempt.
	Observe(host string, latency time.Duration, outcome Outcome)

	// Stats returns a snapshot of all hosts ordered by host name.
	Stats() []DomainStats

	// Reset clears all counters.
	Reset()
}
