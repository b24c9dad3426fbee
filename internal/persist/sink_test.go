package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"main/internal/backtest"
)

func TestTradeRowMapping(t *testing.T) {
	tr := backtest.TradeRecord{
		TradeID:     7,
		TimestampNs: 1_000,
		Side:        backtest.SideSell,
		Price:       450_025,
		Quantity:    3,
		Commission:  186,
		RealizedPnL: 564,
		Partial:     true,
	}

	row := tradeRow(42, tr)
	assert.EqualValues(t, 42, row.RunID)
	assert.EqualValues(t, 7, row.TradeID)
	assert.Equal(t, "sell", row.Side)
	assert.EqualValues(t, 450_025, row.Price)
	assert.EqualValues(t, 3, row.Quantity)
	assert.EqualValues(t, 186, row.Commission)
	assert.EqualValues(t, 564, row.RealizedPnL)
	assert.True(t, row.Partial)
}

func TestEquityRowMapping(t *testing.T) {
	row := equityRow(42, backtest.EquityPoint{TimestampNs: 9, Equity: 1_000_250})
	assert.EqualValues(t, 42, row.RunID)
	assert.EqualValues(t, 9, row.TimestampNs)
	assert.EqualValues(t, 1_000_250, row.Equity)
}

func TestDiscardSink(t *testing.T) {
	var sink Sink = Discard{}
	assert.NoError(t, sink.SaveRun(context.Background(), Run{}))
	assert.NoError(t, sink.Close())
}
