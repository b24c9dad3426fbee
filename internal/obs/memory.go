package obs

import (
	"runtime"
	"time"
)

// MemorySample is one reading of process heap state.
type MemorySample struct {
	At         time.Time
	HeapAlloc  uint64
	HeapInuse  uint64
	TotalAlloc uint64
	NumGC      uint32
}

// MemoryMeter samples runtime memory stats and exposes deltas between
// consecutive snapshots.
type MemoryMeter struct {
	prev, curr runtime.MemStats
	prevAt     time.Time
	currAt     time.Time
}

// Snapshot reads current memory stats, rotating the previous reading.
func (m *MemoryMeter) Snapshot() MemorySample {
	m.prev, m.curr = m.curr, m.prev
	m.prevAt = m.currAt
	m.currAt = time.Now()

	runtime.ReadMemStats(&m.curr)
	if m.prevAt.IsZero() {
		m.prevAt = m.currAt
	}
	return MemorySample{
		At:         m.currAt,
		HeapAlloc:  m.curr.HeapAlloc,
		HeapInuse:  m.curr.HeapInuse,
		TotalAlloc: m.curr.TotalAlloc,
		NumGC:      m.curr.NumGC,
	}
}

// AllocGrowth returns bytes allocated between the last two snapshots.
func (m *MemoryMeter) AllocGrowth() uint64 {
	return m.curr.TotalAlloc - m.prev.TotalAlloc
}
