package backtest

import "main/internal/schema"

// TickSource yields validated ticks in causal order for one contract. A
// nil batch with nil error marks the end of the stream.
type TickSource interface {
	NextBatch(max int) ([]schema.Tick, error)
}

// SliceSource serves an in-memory tick slice as a TickSource.
type SliceSource struct {
	ticks []schema.Tick
	pos   int
}

// NewSliceSource wraps ticks without copying.
func NewSliceSource(ticks []schema.Tick) *SliceSource {
	return &SliceSource{ticks: ticks}
}

// NextBatch returns up to max ticks, nil at end of stream.
func (s *SliceSource) NextBatch(max int) ([]schema.Tick, error) {
	if s.pos >= len(s.ticks) {
		return nil, nil
	}
	end := s.pos + max
	if max <= 0 || end > len(s.ticks) {
		end = len(s.ticks)
	}
	batch := s.ticks[s.pos:end:end]
	s.pos = end
	return batch, nil
}

// Skip advances past n ticks, used when resuming from a checkpoint taken
// mid-stream.
func (s *SliceSource) Skip(n int64) {
	pos := s.pos + int(n)
	if pos > len(s.ticks) {
		pos = len(s.ticks)
	}
	s.pos = pos
}
