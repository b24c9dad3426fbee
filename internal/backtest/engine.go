package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"main/internal/book"
	"main/internal/obs"
	"main/internal/risk"
	"main/internal/schema"
)

var (
	ErrNotIdle     = errors.New("engine has already run")
	ErrRunCanceled = errors.New("run canceled")
)

// State is the engine lifecycle.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Result summarizes a finished run.
type Result struct {
	State          State
	TicksProcessed int64
	FinalCapital   schema.Notional
	Metrics        Metrics
	Elapsed        time.Duration
	TicksPerSecond float64
}

// Engine drives one backtest run for one contract. It is single-threaded;
// concurrent runs use independent engine instances.
type Engine struct {
	cfg   Config
	inst  schema.Instrument
	recon *book.Reconstructor
	gate  *risk.Engine
	guard *obs.MemoryGuard

	state       State
	account     Account
	trades      []TradeRecord
	curve       []EquityPoint
	tickIndex   int64
	nextTradeID uint64

	lastCheckpoint *Checkpoint

	metrics *obs.Metrics
}

// New creates an idle engine for the given instrument.
func New(cfg Config, inst schema.Instrument) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:         cfg,
		inst:        inst,
		recon:       book.NewReconstructor(book.New(inst.Contract)),
		gate:        risk.NewEngine(cfg.riskConfig()),
		guard:       obs.NewMemoryGuard(cfg.MemoryLimitBytes),
		account:     NewAccount(cfg.InitialCapital),
		nextTradeID: 1,
		metrics:     obs.NewMetrics(),
	}, nil
}

// FromCheckpoint creates a fresh engine resuming the account, book, trade
// log, and equity curve from cp. The caller positions the tick source past
// cp.TickIndex ticks.
func FromCheckpoint(cfg Config, inst schema.Instrument, cp Checkpoint) (*Engine, error) {
	e, err := New(cfg, inst)
	if err != nil {
		return nil, err
	}
	if cp.Contract != "" && cp.Contract != inst.Contract {
		return nil, fmt.Errorf("checkpoint contract %q does not match instrument %q", cp.Contract, inst.Contract)
	}

	bids := make([]book.PriceLevel, len(cp.Bids))
	for i, lvl := range cp.Bids {
		bids[i] = book.PriceLevel{Price: lvl.Price, Quantity: lvl.Quantity, UpdateNs: lvl.UpdateNs}
	}
	asks := make([]book.PriceLevel, len(cp.Asks))
	for i, lvl := range cp.Asks {
		asks[i] = book.PriceLevel{Price: lvl.Price, Quantity: lvl.Quantity, UpdateNs: lvl.UpdateNs}
	}
	e.recon = book.NewReconstructor(book.Restore(
		inst.Contract, bids, asks,
		cp.LastUpdateNs, cp.LastTradePrice, cp.LastTradeVolume, cp.LastTradeNs,
	))

	e.account = Account{
		Capital:       cp.Capital,
		Position:      cp.Position,
		EntryNotional: cp.EntryNotional,
	}
	e.trades = append(e.trades, cp.Trades...)
	e.curve = append(e.curve, cp.EquityCurve...)
	e.tickIndex = cp.TickIndex
	if cp.NextTradeID > 0 {
		e.nextTradeID = cp.NextTradeID
	}
	return e, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Account returns a copy of the current account.
func (e *Engine) Account() Account {
	return e.account
}

// Trades returns the trade log.
func (e *Engine) Trades() []TradeRecord {
	return e.trades
}

// EquityCurve returns the recorded equity observations.
func (e *Engine) EquityCurve() []EquityPoint {
	return e.curve
}

// LastCheckpoint returns the most recent periodic checkpoint, nil if none
// was taken.
func (e *Engine) LastCheckpoint() *Checkpoint {
	return e.lastCheckpoint
}

// Metrics computes performance metrics from the current equity curve and
// trade log. It may be called mid-run or after completion.
func (e *Engine) Metrics() Metrics {
	return ComputeMetrics(e.cfg.InitialCapital, e.curve, e.trades, e.cfg.AnnualizationFactor)
}

// Counters returns the engine's pipeline counters.
func (e *Engine) Counters() *obs.Metrics {
	return e.metrics
}

// Run executes the backtest to the end of the tick source. Cancellation and
// memory checks happen on batch boundaries only, so shard results stay
// well-defined. A failed run preserves the last checkpoint and partial
// results; the returned Result is valid either way.
func (e *Engine) Run(ctx context.Context, strategy Strategy, src TickSource) (Result, error) {
	if e.state != StateIdle {
		return Result{State: e.state}, ErrNotIdle
	}
	e.state = StateRunning
	start := time.Now()

	err := e.loop(ctx, strategy, src)
	if err != nil {
		e.state = StateFailed
	} else {
		e.state = StateCompleted
	}

	elapsed := time.Since(start)
	res := Result{
		State:          e.state,
		TicksProcessed: e.tickIndex,
		FinalCapital:   e.account.Capital,
		Metrics:        e.Metrics(),
		Elapsed:        elapsed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		res.TicksPerSecond = float64(e.tickIndex) / secs
	}
	return res, err
}

func (e *Engine) loop(ctx context.Context, strategy Strategy, src TickSource) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w at tick %d: %v", ErrRunCanceled, e.tickIndex, err)
		}
		if err := e.guard.Check(); err != nil {
			return fmt.Errorf("at tick %d: %w", e.tickIndex, err)
		}

		batch, err := src.NextBatch(e.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("tick source at tick %d: %w", e.tickIndex, err)
		}
		if len(batch) == 0 {
			return nil
		}

		batchStart := time.Now()
		for i := range batch {
			if err := e.processTick(strategy, batch[i]); err != nil {
				return err
			}
		}
		e.metrics.ObserveBatch(time.Since(batchStart))
	}
}

func (e *Engine) processTick(strategy Strategy, t schema.Tick) error {
	if err := e.recon.Process(t); err != nil {
		return fmt.Errorf("book at tick %d, contract %s, ts %d: %w", e.tickIndex, t.Contract(), t.TimestampNs, err)
	}
	if t.Type.IsQuote() {
		if err := e.recon.Book().ValidateIntegrity(); err != nil {
			return fmt.Errorf("book at tick %d, contract %s, ts %d: %w", e.tickIndex, t.Contract(), t.TimestampNs, err)
		}
	}
	e.metrics.AddBookUpdates(1)

	snap := e.recon.Book().Snapshot()

	if signal, ok := strategy.OnTick(t, snap); ok {
		e.metrics.IncSignals()
		e.execute(strategy, signal, snap, t.TimestampNs)
	}

	e.observeEquity(t)

	e.tickIndex++
	if e.cfg.CheckpointIntervalTicks > 0 && e.tickIndex%e.cfg.CheckpointIntervalTicks == 0 {
		cp := e.Checkpoint()
		e.lastCheckpoint = &cp
		e.metrics.IncCheckpoints()
	}
	return nil
}

// execute fills a signal against the simulated market: slippage shifts the
// price against the order, touch liquidity caps size when partial fills are
// on (an empty opposite side fills nothing), and the risk gate rejects
// breaches outright.
func (e *Engine) execute(strategy Strategy, signal Signal, snap book.Snapshot, ts int64) {
	if signal.Quantity <= 0 || signal.Price <= 0 {
		return
	}

	qty := signal.Quantity
	if e.cfg.AllowPartialFills {
		touch := e.touchLiquidity(signal.Side, snap)
		if touch <= 0 {
			return
		}
		if touch < qty {
			qty = touch
		}
	}

	delta := qty
	if signal.Side == SideSell {
		delta = -qty
	}
	decision := e.gate.Evaluate(
		risk.Order{Price: signal.Price, QtyDelta: delta},
		risk.StateView{Position: e.account.Position, ReferencePrice: snap.LastTradePrice},
	)
	if !decision.Allowed() {
		return
	}

	price := e.fillPrice(signal.Side, signal.Price)
	commission := schema.Notional(int64(e.cfg.CommissionPerContract) * int64(qty))
	realized := e.account.ApplyFill(delta, price, commission)

	trade := TradeRecord{
		TradeID:     e.nextTradeID,
		TimestampNs: ts,
		Side:        signal.Side,
		Price:       price,
		Quantity:    qty,
		Commission:  commission,
		RealizedPnL: realized,
		Partial:     qty < signal.Quantity,
	}
	e.nextTradeID++
	e.trades = append(e.trades, trade)
	e.metrics.IncFills()
	strategy.OnFill(trade)
}

// fillPrice applies fixed slippage in minimum ticks against the order.
func (e *Engine) fillPrice(side Side, price schema.Price) schema.Price {
	slip := schema.Price(e.cfg.SlippageTicks) * e.inst.MinTick
	if side == SideBuy {
		return price + slip
	}
	return price - slip
}

// touchLiquidity is the opposite-side best level quantity available to the
// order.
func (e *Engine) touchLiquidity(side Side, snap book.Snapshot) schema.Quantity {
	if side == SideBuy {
		if lvl, ok := snap.BestAsk(); ok {
			return lvl.Quantity
		}
		return 0
	}
	if lvl, ok := snap.BestBid(); ok {
		return lvl.Quantity
	}
	return 0
}

// observeEquity appends one equity observation marked at the freshest
// usable price: mid when both sides are quoted, otherwise the last trade.
func (e *Engine) observeEquity(t schema.Tick) {
	mark := e.markPrice()
	if mark <= 0 {
		return
	}
	e.curve = append(e.curve, EquityPoint{
		TimestampNs: t.TimestampNs,
		Equity:      e.account.Equity(mark),
	})
}

func (e *Engine) markPrice() schema.Price {
	b := e.recon.Book()
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if okBid && okAsk {
		// Truncate the exact mid back to price scale for marking.
		return (bid + ask) / 2
	}
	price, _, _ := b.LastTrade()
	return price
}
