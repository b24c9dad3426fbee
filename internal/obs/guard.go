package obs

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrMemoryLimit is returned when the process heap exceeds the configured
// ceiling. Callers abort the run and preserve partial results.
var ErrMemoryLimit = errors.New("memory limit exceeded")

// MemoryGuard checks the process heap against a hard ceiling. Checks are
// meant to run proactively before allocation-heavy steps, on batch
// boundaries, not per tick.
type MemoryGuard struct {
	limit uint64
}

// NewMemoryGuard creates a guard. A zero limit disables all checks.
func NewMemoryGuard(limitBytes int64) *MemoryGuard {
	g := &MemoryGuard{}
	if limitBytes > 0 {
		g.limit = uint64(limitBytes)
	}
	return g
}

// Check reads current heap usage and fails when it exceeds the limit.
func (g *MemoryGuard) Check() error {
	if g == nil || g.limit == 0 {
		return nil
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc > g.limit {
		return fmt.Errorf("%w: heap %d bytes, limit %d bytes", ErrMemoryLimit, ms.HeapAlloc, g.limit)
	}
	return nil
}
