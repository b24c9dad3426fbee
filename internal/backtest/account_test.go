package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"main/internal/schema"
)

func TestAccountLongRoundTrip(t *testing.T) {
	a := NewAccount(1_000_000)

	net := a.ApplyFill(5, 450_000, 100)
	assert.Equal(t, schema.Notional(-100), net, "opening fill only pays commission")
	assert.Equal(t, schema.Quantity(5), a.Position)
	assert.Equal(t, schema.Notional(1_000_000-100), a.Capital)

	net = a.ApplyFill(-5, 450_050, 100)
	assert.Equal(t, schema.Notional(5*50-100), net)
	assert.True(t, a.Flat())
	assert.Zero(t, a.EntryNotional)
	assert.Equal(t, schema.Notional(1_000_000-200+250), a.Capital)
}

func TestAccountShortRoundTrip(t *testing.T) {
	a := NewAccount(1_000_000)

	a.ApplyFill(-5, 450_000, 0)
	assert.Equal(t, schema.Quantity(-5), a.Position)

	net := a.ApplyFill(5, 449_900, 0)
	assert.Equal(t, schema.Notional(500), net, "covering 100 lower on 5 contracts")
	assert.True(t, a.Flat())
	assert.Equal(t, schema.Notional(1_000_500), a.Capital)
}

func TestAccountPartialCloseKeepsBasisRemainder(t *testing.T) {
	a := NewAccount(0)

	a.ApplyFill(3, 100, 0)
	assert.Equal(t, schema.Notional(300), a.EntryNotional)

	// Closing 1 of 3 removes exactly a third of the basis.
	net := a.ApplyFill(-1, 110, 0)
	assert.Equal(t, schema.Notional(10), net)
	assert.Equal(t, schema.Quantity(2), a.Position)
	assert.Equal(t, schema.Notional(200), a.EntryNotional)
}

func TestAccountCrossThroughFlat(t *testing.T) {
	a := NewAccount(0)

	a.ApplyFill(5, 100, 0)
	net := a.ApplyFill(-8, 110, 0)

	assert.Equal(t, schema.Notional(50), net, "only the closed 5 realize")
	assert.Equal(t, schema.Quantity(-3), a.Position)
	assert.Equal(t, schema.Notional(-330), a.EntryNotional, "short basis opens at the fill price")
}

func TestAccountEquity(t *testing.T) {
	a := NewAccount(1_000)
	assert.Equal(t, schema.Notional(1_000), a.Equity(999))

	a.ApplyFill(4, 100, 0)
	assert.Equal(t, schema.Notional(1_000+4*10), a.Equity(110))
	assert.Equal(t, schema.Notional(1_000-4*5), a.Equity(95))

	a = NewAccount(1_000)
	a.ApplyFill(-4, 100, 0)
	assert.Equal(t, schema.Notional(1_000+4*10), a.Equity(90), "short gains as price falls")
}
