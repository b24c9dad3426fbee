package obs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.AddTicksIngested(100)
	m.AddTicksRejected(3)
	m.AddBookUpdates(80)
	m.IncSignals()
	m.IncFills()
	m.IncFills()
	m.IncCheckpoints()
	m.IncBatchesDropped()

	s := m.Snapshot()
	assert.EqualValues(t, 100, s.TicksIngested)
	assert.EqualValues(t, 3, s.TicksRejected)
	assert.EqualValues(t, 80, s.BookUpdates)
	assert.EqualValues(t, 1, s.Signals)
	assert.EqualValues(t, 2, s.Fills)
	assert.EqualValues(t, 1, s.Checkpoints)
	assert.EqualValues(t, 1, s.BatchesDropped)
}

func TestBatchLatencyStats(t *testing.T) {
	m := NewMetrics()
	m.ObserveBatch(10 * time.Millisecond)
	m.ObserveBatch(30 * time.Millisecond)
	m.ObserveBatch(-time.Millisecond)

	s := m.Snapshot().BatchLatency
	assert.EqualValues(t, 2, s.Count)
	assert.Equal(t, 20*time.Millisecond, s.Avg)
	assert.Equal(t, 30*time.Millisecond, s.Max)
}

func TestMemoryGuardDisabled(t *testing.T) {
	assert.NoError(t, NewMemoryGuard(0).Check())

	var g *MemoryGuard
	assert.NoError(t, g.Check())
}

func TestMemoryGuardTrips(t *testing.T) {
	err := NewMemoryGuard(1).Check()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMemoryLimit)
}

func TestMemoryGuardGenerousLimitPasses(t *testing.T) {
	assert.NoError(t, NewMemoryGuard(1<<40).Check())
}

type collectSink struct {
	mu      sync.Mutex
	samples []Sample
}

func (s *collectSink) Push(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
}

func (s *collectSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

func TestMonitorPushesSamples(t *testing.T) {
	m := NewMetrics()
	m.AddTicksIngested(5)
	sink := &collectSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewMonitor(m, sink).Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return sink.len() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.EqualValues(t, 5, sink.samples[0].Counters.TicksIngested)
}
