package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight pipeline counters and latency stats. All
// methods are safe for concurrent use.
type Metrics struct {
	ticksIngested  atomic.Uint64
	ticksRejected  atomic.Uint64
	bookUpdates    atomic.Uint64
	signals        atomic.Uint64
	fills          atomic.Uint64
	checkpoints    atomic.Uint64
	batchesDropped atomic.Uint64

	batchLatency LatencyStats
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) AddTicksIngested(n int) { m.ticksIngested.Add(uint64(n)) }
func (m *Metrics) AddTicksRejected(n int) { m.ticksRejected.Add(uint64(n)) }
func (m *Metrics) AddBookUpdates(n int)   { m.bookUpdates.Add(uint64(n)) }
func (m *Metrics) IncSignals()            { m.signals.Add(1) }
func (m *Metrics) IncFills()              { m.fills.Add(1) }
func (m *Metrics) IncCheckpoints()        { m.checkpoints.Add(1) }
func (m *Metrics) IncBatchesDropped()     { m.batchesDropped.Add(1) }

func (m *Metrics) ObserveBatch(d time.Duration) { m.batchLatency.observe(d) }

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count atomic.Uint64
	sum   atomic.Uint64
	max   atomic.Uint64
}

func (l *LatencyStats) observe(d time.Duration) {
	if d < 0 {
		return
	}
	ns := uint64(d)
	l.count.Add(1)
	l.sum.Add(ns)
	for {
		cur := l.max.Load()
		if ns <= cur || l.max.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Avg   time.Duration
	Max   time.Duration
}

// Snapshot captures the current counter values.
type Snapshot struct {
	TicksIngested  uint64
	TicksRejected  uint64
	BookUpdates    uint64
	Signals        uint64
	Fills          uint64
	Checkpoints    uint64
	BatchesDropped uint64
	BatchLatency   LatencySnapshot
}

// Snapshot copies the current values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		TicksIngested:  m.ticksIngested.Load(),
		TicksRejected:  m.ticksRejected.Load(),
		BookUpdates:    m.bookUpdates.Load(),
		Signals:        m.signals.Load(),
		Fills:          m.fills.Load(),
		Checkpoints:    m.checkpoints.Load(),
		BatchesDropped: m.batchesDropped.Load(),
	}
	s.BatchLatency.Count = m.batchLatency.count.Load()
	s.BatchLatency.Max = time.Duration(m.batchLatency.max.Load())
	if s.BatchLatency.Count > 0 {
		s.BatchLatency.Avg = time.Duration(m.batchLatency.sum.Load() / s.BatchLatency.Count)
	}
	return s
}
