package backtest

import (
	"math"

	"main/internal/schema"
)

// TradeRecord is one executed fill in the trade log.
type TradeRecord struct {
	TradeID     uint64          `json:"tradeId"`
	TimestampNs int64           `json:"timestampNs"`
	Side        Side            `json:"side"`
	Price       schema.Price    `json:"price"`
	Quantity    schema.Quantity `json:"quantity"`
	Commission  schema.Notional `json:"commission"`

	// RealizedPnL is the capital change this fill realized, net of
	// commission. Opening fills carry only the commission.
	RealizedPnL schema.Notional `json:"realizedPnl"`

	// Partial marks fills clipped by touch liquidity.
	Partial bool `json:"partial,omitempty"`
}

// EquityPoint is one observation of account equity.
type EquityPoint struct {
	TimestampNs int64           `json:"timestampNs"`
	Equity      schema.Notional `json:"equity"`
}

// Metrics summarizes a run. It is a pure function of the equity curve and
// trade log, so it is reproducible from checkpoint state alone.
type Metrics struct {
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"`

	SharpeRatio float64 `json:"sharpeRatio"`

	// MaxDrawdown is the peak-to-trough equity decline in scaled notional
	// units, always >= 0.
	MaxDrawdown schema.Notional `json:"maxDrawdown"`

	TotalReturn float64 `json:"totalReturn"`

	FinalEquity schema.Notional `json:"finalEquity"`
}

// ComputeMetrics derives performance metrics from an equity curve and trade
// log. annualization scales the Sharpe ratio; 252 treats each observation
// as one trading day.
func ComputeMetrics(initial schema.Notional, curve []EquityPoint, trades []TradeRecord, annualization float64) Metrics {
	m := Metrics{
		TotalTrades: len(trades),
		FinalEquity: initial,
		MaxDrawdown: maxDrawdown(curve),
	}

	for _, tr := range trades {
		// Only closing fills decide wins; an opening fill's PnL is just
		// its commission.
		pnl := tr.RealizedPnL + tr.Commission
		switch {
		case pnl > 0:
			m.WinningTrades++
		case pnl < 0:
			m.LosingTrades++
		}
	}
	if decided := m.WinningTrades + m.LosingTrades; decided > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(decided)
	}

	if len(curve) > 0 {
		m.FinalEquity = curve[len(curve)-1].Equity
	}
	if initial > 0 {
		m.TotalReturn = float64(m.FinalEquity-initial) / float64(initial)
	}
	m.SharpeRatio = sharpe(curve, annualization)
	return m
}

// sharpe computes mean return over return volatility across consecutive
// equity observations, scaled by sqrt(annualization).
func sharpe(curve []EquityPoint, annualization float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, float64(curve[i].Equity-prev)/float64(prev))
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(annualization)
}

// maxDrawdown is the largest high-water-mark to trough decline.
func maxDrawdown(curve []EquityPoint) schema.Notional {
	var peak, maxDD schema.Notional
	for i, p := range curve {
		if i == 0 || p.Equity > peak {
			peak = p.Equity
		}
		if dd := peak - p.Equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
