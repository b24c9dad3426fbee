package persist

import (
	"context"
	"time"

	"gorm.io/gorm"

	"main/internal/backtest"
	"main/internal/schema"
	"main/pkg/conn"
)

const insertBatchSize = 1_000

// Run bundles everything worth keeping from one backtest run.
type Run struct {
	Contract       string
	StartedAt      time.Time
	Elapsed        time.Duration
	TicksProcessed int64
	InitialCapital schema.Notional

	Metrics backtest.Metrics
	Trades  []backtest.TradeRecord
	Curve   []backtest.EquityPoint
}

// Sink stores completed runs.
type Sink interface {
	SaveRun(ctx context.Context, run Run) error
	Close() error
}

// Store persists runs to PostgreSQL.
type Store struct {
	client *conn.Client
}

// OpenStore connects and migrates the result tables.
func OpenStore(cfg conn.Config) (*Store, error) {
	client, err := conn.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.DB().AutoMigrate(&RunRow{}, &TradeRow{}, &EquityRow{}); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Store{client: client}, nil
}

// SaveRun writes the run, its trades, and its equity curve in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	return s.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := RunRow{
			Contract:       run.Contract,
			StartedAt:      run.StartedAt,
			Elapsed:        run.Elapsed,
			TicksProcessed: run.TicksProcessed,
			InitialCapital: run.InitialCapital,
			FinalEquity:    run.Metrics.FinalEquity,
			TotalTrades:    int64(run.Metrics.TotalTrades),
			WinningTrades:  int64(run.Metrics.WinningTrades),
			LosingTrades:   int64(run.Metrics.LosingTrades),
			WinRate:        run.Metrics.WinRate,
			SharpeRatio:    run.Metrics.SharpeRatio,
			MaxDrawdown:    run.Metrics.MaxDrawdown,
			TotalReturn:    run.Metrics.TotalReturn,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		if len(run.Trades) > 0 {
			rows := make([]TradeRow, len(run.Trades))
			for i, tr := range run.Trades {
				rows[i] = tradeRow(row.ID, tr)
			}
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return err
			}
		}

		if len(run.Curve) > 0 {
			rows := make([]EquityRow, len(run.Curve))
			for i, p := range run.Curve {
				rows[i] = equityRow(row.ID, p)
			}
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Discard is a Sink that keeps nothing. Used when no database is
// configured.
type Discard struct{}

func (Discard) SaveRun(context.Context, Run) error { return nil }
func (Discard) Close() error                       { return nil }
