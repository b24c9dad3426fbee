package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"main/internal/schema"
)

var (
	ErrQueueFull   = errors.New("tick queue full")
	ErrQueueClosed = errors.New("tick queue closed")
)

// Batch is the unit passed through the in-memory bus: a run of validated
// ticks in feed order.
type Batch struct {
	Seq   uint64
	Ticks []schema.Tick
}

// Queue is a bounded, non-blocking batch queue decoupling the ingest side
// from a consumer.
type Queue struct {
	ch     chan Batch
	closed uint32
	drops  atomic.Uint64
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Batch, capacity)}
}

// TryPublish enqueues a batch without blocking. A full queue counts a drop
// and returns ErrQueueFull; the caller decides whether to retry or halt.
func (q *Queue) TryPublish(b Batch) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- b:
		return nil
	default:
		q.drops.Add(1)
		return ErrQueueFull
	}
}

// Publish enqueues a batch, blocking until there is room or ctx is done.
func (q *Queue) Publish(ctx context.Context, b Batch) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- b:
		return nil
	}
}

// Drops returns how many batches TryPublish rejected.
func (q *Queue) Drops() uint64 {
	return q.drops.Load()
}

// Close stops the queue from accepting new batches.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Receive dequeues the next batch. The second return is false once the
// queue is closed and drained, or when ctx is done.
func (q *Queue) Receive(ctx context.Context) (Batch, bool) {
	select {
	case <-ctx.Done():
		return Batch{}, false
	case b, ok := <-q.ch:
		return b, ok
	}
}

// Run consumes batches until the context is done or the queue is closed
// and drained.
func (q *Queue) Run(ctx context.Context, handler func(Batch)) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-q.ch:
			if !ok {
				return
			}
			handler(b)
		}
	}
}
