package persist

import (
	"time"

	"main/internal/backtest"
	"main/internal/schema"
)

// RunRow is one completed backtest run.
type RunRow struct {
	ID        uint   `gorm:"primaryKey"`
	Contract  string `gorm:"size:8;index"`
	StartedAt time.Time
	Elapsed   time.Duration

	TicksProcessed int64
	InitialCapital schema.Notional
	FinalEquity    schema.Notional

	TotalTrades   int64
	WinningTrades int64
	LosingTrades  int64
	WinRate       float64
	SharpeRatio   float64
	MaxDrawdown   schema.Notional
	TotalReturn   float64
}

// TradeRow is one executed fill inside a run.
type TradeRow struct {
	ID          uint  `gorm:"primaryKey"`
	RunID       uint  `gorm:"index"`
	TradeID     int64 `gorm:"index"`
	TimestampNs int64
	Side        string `gorm:"size:4"`
	Price       schema.Price
	Quantity    schema.Quantity
	Commission  schema.Notional
	RealizedPnL schema.Notional
	Partial     bool
}

// EquityRow is one equity curve observation inside a run.
type EquityRow struct {
	ID          uint `gorm:"primaryKey"`
	RunID       uint `gorm:"index"`
	TimestampNs int64
	Equity      schema.Notional
}

func tradeRow(runID uint, tr backtest.TradeRecord) TradeRow {
	return TradeRow{
		RunID:       runID,
		TradeID:     int64(tr.TradeID),
		TimestampNs: tr.TimestampNs,
		Side:        tr.Side.String(),
		Price:       tr.Price,
		Quantity:    tr.Quantity,
		Commission:  tr.Commission,
		RealizedPnL: tr.RealizedPnL,
		Partial:     tr.Partial,
	}
}

func equityRow(runID uint, p backtest.EquityPoint) EquityRow {
	return EquityRow{
		RunID:       runID,
		TimestampNs: p.TimestampNs,
		Equity:      p.Equity,
	}
}
