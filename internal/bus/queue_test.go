package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func batchOf(seq uint64, n int) Batch {
	ticks := make([]schema.Tick, n)
	for i := range ticks {
		ticks[i] = schema.NewTick(schema.LevelL1, schema.MDTTrade, int64(i+1), 450_000, 1, "H25")
	}
	return Batch{Seq: seq, Ticks: ticks}
}

func TestQueuePublishConsume(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.TryPublish(batchOf(1, 2)))
	require.NoError(t, q.TryPublish(batchOf(2, 3)))
	q.Close()

	var seqs []uint64
	q.Run(context.Background(), func(b Batch) {
		seqs = append(seqs, b.Seq)
	})
	assert.Equal(t, []uint64{1, 2}, seqs)
}

func TestQueueFullDrops(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.TryPublish(batchOf(1, 1)))

	err := q.TryPublish(batchOf(2, 1))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, uint64(1), q.Drops())
}

func TestQueueClosedRejects(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	assert.ErrorIs(t, q.TryPublish(batchOf(1, 1)), ErrQueueClosed)
	assert.ErrorIs(t, q.Publish(context.Background(), batchOf(1, 1)), ErrQueueClosed)
}

func TestQueuePublishBlocksUntilContextDone(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.TryPublish(batchOf(1, 1)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Publish(ctx, batchOf(2, 1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueRunStopsOnContext(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		q.Run(ctx, func(Batch) {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on canceled context")
	}
}

func TestQueueReceive(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.TryPublish(batchOf(1, 2)))
	q.Close()

	b, ok := q.Receive(context.Background())
	require.True(t, ok)
	assert.EqualValues(t, 1, b.Seq)
	assert.Len(t, b.Ticks, 2)

	_, ok = q.Receive(context.Background())
	assert.False(t, ok)
}

func TestQueueReceiveStopsOnContext(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok := q.Receive(ctx)
	assert.False(t, ok)
}
