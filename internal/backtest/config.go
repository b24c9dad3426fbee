package backtest

import (
	"errors"

	"main/internal/risk"
	"main/internal/schema"
)

var (
	ErrNoCapital        = errors.New("initial capital must be positive")
	ErrBadBatchSize     = errors.New("batch size must be positive")
	ErrBadAnnualization = errors.New("annualization factor must be positive")
)

// Config controls one backtest run. Monetary fields are scaled integers at
// the instrument's notional scale.
type Config struct {
	InitialCapital schema.Notional `json:"initialCapital"`

	// CommissionPerContract is charged on every filled contract.
	CommissionPerContract schema.Notional `json:"commissionPerContract"`

	// SlippageTicks shifts the execution price against the order by this
	// many minimum ticks.
	SlippageTicks int64 `json:"slippageTicks"`

	// AllowPartialFills caps fill size at the opposite touch quantity
	// instead of rejecting when liquidity is short.
	AllowPartialFills bool `json:"allowPartialFills"`

	// MaxPositionSize rejects orders whose projected absolute position
	// exceeds it. Zero disables the gate.
	MaxPositionSize schema.Quantity `json:"maxPositionSize"`

	// CheckpointIntervalTicks takes an in-memory checkpoint every N ticks.
	// Zero disables periodic checkpointing.
	CheckpointIntervalTicks int64 `json:"checkpointIntervalTicks"`

	// BatchSize bounds how many ticks are pulled from the source per
	// iteration; cancellation and memory checks run on these boundaries.
	BatchSize int `json:"batchSize"`

	// MemoryLimitBytes aborts the run before allocation-heavy steps when
	// the process heap exceeds it. Zero disables.
	MemoryLimitBytes int64 `json:"memoryLimitBytes"`

	// AnnualizationFactor scales the Sharpe ratio; 252 treats each equity
	// observation as one trading day.
	AnnualizationFactor float64 `json:"annualizationFactor"`
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 10_000
	}
	if c.AnnualizationFactor <= 0 {
		c.AnnualizationFactor = 252
	}
	return c
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return ErrNoCapital
	}
	if c.BatchSize < 0 {
		return ErrBadBatchSize
	}
	if c.AnnualizationFactor < 0 {
		return ErrBadAnnualization
	}
	return nil
}

func (c Config) riskConfig() risk.Config {
	return risk.Config{MaxPosition: c.MaxPositionSize}
}
