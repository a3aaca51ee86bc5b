package dispatcher

import "sync"

// Metrics holds lifetime invocation counters for one dispatcher instance.
// Owned by the Dispatcher, never a package-level singleton, so isolated
// instances (and tests) cannot cross-contaminate.
type Metrics struct {
	mu          sync.Mutex
	totalCalls  uint64
	totalChains uint64
	totalErrors uint64
	perSkill    map[string]uint64
}

// NewMetrics creates an empty counter set.
func NewMetrics() *Metrics {
	return &Metrics{perSkill: make(map[string]uint64)}
}

func (m *Metrics) recordCall() {
	m.mu.Lock()
	m.totalCalls++
	m.mu.Unlock()
}

func (m *Metrics) recordChain() {
	m.mu.Lock()
	m.totalChains++
	m.mu.Unlock()
}

func (m *Metrics) recordError() {
	m.mu.Lock()
	m.totalErrors++
	m.mu.Unlock()
}

func (m *Metrics) recordSkill(name string) {
	m.mu.Lock()
	m.perSkill[name]++
	m.mu.Unlock()
}

// Snapshot is a point-in-time copy of the counters, shaped for the metrics
// route.
type Snapshot struct {
	TotalCalls  uint64            `json:"totalCalls"`
	TotalChains uint64            `json:"totalChains"`
	TotalErrors uint64            `json:"totalErrors"`
	PerSkill    map[string]uint64 `json:"perSkill"`
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	per := make(map[string]uint64, len(m.perSkill))
	for k, v := range m.perSkill {
		per[k] = v
	}
	return Snapshot{
		TotalCalls:  m.totalCalls,
		TotalChains: m.totalChains,
		TotalErrors: m.totalErrors,
		PerSkill:    per,
	}
}
