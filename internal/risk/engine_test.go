package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateAllowsWithinLimits(t *testing.T) {
	e := NewEngine(Config{
		MaxOrderQty:      10,
		MaxOrderNotional: 10_000_000,
		MaxPosition:      20,
	})

	d := e.Evaluate(Order{Price: 450_000, QtyDelta: 5}, StateView{Position: 3})
	assert.True(t, d.Allowed())
	assert.Equal(t, ReasonNone, d.Reason)
}

func TestEvaluateKillSwitch(t *testing.T) {
	e := NewEngine(Config{KillSwitch: true})
	d := e.Evaluate(Order{Price: 450_000, QtyDelta: 1}, StateView{})
	assert.False(t, d.Allowed())
	assert.Equal(t, ReasonKillSwitch, d.Reason)
}

func TestEvaluateOrderQtyLimit(t *testing.T) {
	e := NewEngine(Config{MaxOrderQty: 10})

	assert.True(t, e.Evaluate(Order{Price: 1, QtyDelta: -10}, StateView{}).Allowed())

	d := e.Evaluate(Order{Price: 1, QtyDelta: -11}, StateView{})
	assert.Equal(t, ReasonOrderQty, d.Reason)
}

func TestEvaluatePositionLimit(t *testing.T) {
	e := NewEngine(Config{MaxPosition: 10})

	assert.True(t, e.Evaluate(Order{Price: 1, QtyDelta: 5}, StateView{Position: 5}).Allowed())

	d := e.Evaluate(Order{Price: 1, QtyDelta: 6}, StateView{Position: 5})
	assert.Equal(t, ReasonPosition, d.Reason)

	// Shorts count by absolute projected position.
	d = e.Evaluate(Order{Price: 1, QtyDelta: -16}, StateView{Position: 5})
	assert.Equal(t, ReasonPosition, d.Reason)

	// Reducing an oversized position is allowed.
	assert.True(t, e.Evaluate(Order{Price: 1, QtyDelta: -5}, StateView{Position: 12}).Allowed())
}

func TestEvaluatePriceDeviation(t *testing.T) {
	e := NewEngine(Config{MaxPriceDeviationBps: 100})

	ref := StateView{ReferencePrice: 450_000}
	assert.True(t, e.Evaluate(Order{Price: 452_000, QtyDelta: 1}, ref).Allowed())

	d := e.Evaluate(Order{Price: 460_000, QtyDelta: 1}, ref)
	assert.Equal(t, ReasonPriceDeviation, d.Reason)
}

func TestEvaluateNotionalLimit(t *testing.T) {
	e := NewEngine(Config{MaxOrderNotional: 1_000_000})

	assert.True(t, e.Evaluate(Order{Price: 100_000, QtyDelta: 10}, StateView{}).Allowed())

	d := e.Evaluate(Order{Price: 100_000, QtyDelta: 11}, StateView{})
	assert.Equal(t, ReasonOrderNotional, d.Reason)
}
