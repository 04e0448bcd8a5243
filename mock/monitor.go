package mock

import (
	"time"

	"github.com/fwojciec/lectern"
)

var _ lectern.Monitor = (*Monitor)(nil)

// Monitor is a mock implementation of lectern.Monitor.
type Monitor struct {
	ObserveFn func(host string, latency time.Duration, outcome lectern.Outcome)
	StatsFn   func() []lectern.DomainStats
	ResetFn   func()
}

func (m *Monitor) Observe(host string, latency time.Duration, outcome lectern.Outcome) {
	m.ObserveFn(host, latency, outcome)
}

func (m *Monitor) Stats() []lectern.DomainStats {
	return m.StatsFn()
}

func (m *Monitor) Reset() {
	m.ResetFn()
}
