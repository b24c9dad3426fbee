package obs

import (
	"context"
	"time"

	"github.com/yanun0323/logs"
)

// Sample is one periodic resource/progress observation pushed to a sink.
type Sample struct {
	Counters Snapshot
	Memory   MemorySample
}

// Sink receives periodic monitoring samples.
type Sink interface {
	Push(Sample)
}

// LogSink writes samples to the structured log.
type LogSink struct{}

func (LogSink) Push(s Sample) {
	logs.Infof("monitor ticks=%d rejected=%d updates=%d fills=%d heap=%dB gc=%d",
		s.Counters.TicksIngested,
		s.Counters.TicksRejected,
		s.Counters.BookUpdates,
		s.Counters.Fills,
		s.Memory.HeapAlloc,
		s.Memory.NumGC,
	)
}

// Monitor periodically samples counters and memory into a sink.
type Monitor struct {
	metrics *Metrics
	meter   MemoryMeter
	sink    Sink
}

// NewMonitor wires a metrics container to a sink. A nil sink logs.
func NewMonitor(metrics *Metrics, sink Sink) *Monitor {
	if sink == nil {
		sink = LogSink{}
	}
	return &Monitor{metrics: metrics, sink: sink}
}

// Run pushes a sample every interval until the context is canceled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sink.Push(Sample{
				Counters: m.metrics.Snapshot(),
				Memory:   m.meter.Snapshot(),
			})
		}
	}
}
