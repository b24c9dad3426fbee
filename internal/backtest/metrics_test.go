package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"main/internal/schema"
)

func curveOf(values ...int64) []EquityPoint {
	curve := make([]EquityPoint, len(values))
	for i, v := range values {
		curve[i] = EquityPoint{TimestampNs: int64(i + 1), Equity: schema.Notional(v)}
	}
	return curve
}

func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics(1_000, nil, nil, 252)
	assert.Zero(t, m.TotalTrades)
	assert.Zero(t, m.WinRate)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.MaxDrawdown)
	assert.Zero(t, m.TotalReturn)
	assert.Equal(t, schema.Notional(1_000), m.FinalEquity)
}

func TestComputeMetricsWinRate(t *testing.T) {
	trades := []TradeRecord{
		{RealizedPnL: -10, Commission: 10},  // opening fill, excluded
		{RealizedPnL: 40, Commission: 10},   // +50 gross, win
		{RealizedPnL: -30, Commission: 10},  // -20 gross, loss
		{RealizedPnL: 90, Commission: 10},   // +100 gross, win
	}
	m := ComputeMetrics(1_000, nil, trades, 252)

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-9)
}

func TestComputeMetricsMaxDrawdown(t *testing.T) {
	m := ComputeMetrics(100, curveOf(100, 120, 90, 110, 130, 95), nil, 252)
	assert.Equal(t, schema.Notional(35), m.MaxDrawdown, "peak 130 to trough 95")

	m = ComputeMetrics(100, curveOf(100, 110, 120, 130), nil, 252)
	assert.Zero(t, m.MaxDrawdown, "monotonic curve has no drawdown")
}

func TestComputeMetricsTotalReturn(t *testing.T) {
	m := ComputeMetrics(1_000, curveOf(1_000, 1_100, 1_250), nil, 252)
	assert.InDelta(t, 0.25, m.TotalReturn, 1e-9)
	assert.Equal(t, schema.Notional(1_250), m.FinalEquity)
}

func TestComputeMetricsSharpe(t *testing.T) {
	// Constant returns have zero volatility.
	m := ComputeMetrics(100, curveOf(100, 110, 121), nil, 252)
	assert.Zero(t, m.SharpeRatio)

	// Alternating returns: +10% and roughly -9.09%.
	m = ComputeMetrics(100, curveOf(100, 110, 100, 110, 100), nil, 252)
	returns := []float64{0.1, -10.0 / 110.0, 0.1, -10.0 / 110.0}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= 4
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= 4
	want := mean / math.Sqrt(variance) * math.Sqrt(252)
	assert.InDelta(t, want, m.SharpeRatio, 1e-9)
}

func TestComputeMetricsAnnualizationConfigurable(t *testing.T) {
	curve := curveOf(100, 110, 100, 110, 100)
	daily := ComputeMetrics(100, curve, nil, 252)
	hourly := ComputeMetrics(100, curve, nil, 252*6.5)
	assert.InDelta(t, daily.SharpeRatio*math.Sqrt(6.5), hourly.SharpeRatio, 1e-9)
}
