package validate

import (
	"sync/atomic"

	"main/internal/schema"
)

// Metrics counts validator activity. All fields are updated atomically so a
// monitoring loop can snapshot them while batches are in flight.
type Metrics struct {
	validated atomic.Int64
	passed    atomic.Int64
	failed    atomic.Int64
	warned    atomic.Int64
	l1        atomic.Int64
	l2        atomic.Int64

	byLevel [4]atomic.Int64
}

func (m *Metrics) observe(t schema.Tick, level Level, out Outcome) {
	m.validated.Add(1)
	if out.Valid {
		m.passed.Add(1)
	} else {
		m.failed.Add(1)
	}
	if len(out.Warnings) > 0 {
		m.warned.Add(1)
	}
	switch t.Level {
	case schema.LevelL1:
		m.l1.Add(1)
	case schema.LevelL2:
		m.l2.Add(1)
	}
	if int(level) < len(m.byLevel) {
		m.byLevel[level].Add(1)
	}
}

// MetricsSnapshot is a point-in-time copy of validator counters.
type MetricsSnapshot struct {
	Validated int64 `json:"validated"`
	Passed    int64 `json:"passed"`
	Failed    int64 `json:"failed"`
	Warned    int64 `json:"warned"`
	L1        int64 `json:"l1"`
	L2        int64 `json:"l2"`

	ByLevel map[string]int64 `json:"by_level"`
}

// Metrics returns a snapshot of the validator's counters.
func (v *Validator) Metrics() MetricsSnapshot {
	s := MetricsSnapshot{
		Validated: v.metrics.validated.Load(),
		Passed:    v.metrics.passed.Load(),
		Failed:    v.metrics.failed.Load(),
		Warned:    v.metrics.warned.Load(),
		L1:        v.metrics.l1.Load(),
		L2:        v.metrics.l2.Load(),
		ByLevel:   make(map[string]int64, len(v.metrics.byLevel)),
	}
	for i := range v.metrics.byLevel {
		if n := v.metrics.byLevel[i].Load(); n > 0 {
			s.ByLevel[Level(i).String()] = n
		}
	}
	return s
}

// PassRate returns passed/validated, or zero before any tick is seen.
func (s MetricsSnapshot) PassRate() float64 {
	if s.Validated == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Validated)
}
