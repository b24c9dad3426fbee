package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/pkg/sys"

	"main/internal/backtest"
	"main/internal/bus"
	"main/internal/ingest"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/persist"
	"main/internal/recorder"
	"main/internal/schema"
	"main/internal/validate"
	"main/pkg/conn"
)

func main() {
	if err := run(); err != nil {
		log.Printf("backtest: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	inputPath := flag.String("input", "", "Tick feed file (.csv or .jsonl)")
	contract := flag.String("contract", "", "Contract month to trade (default: first in registry)")
	strategyName := flag.String("strategy", "imbalance", "Strategy name")
	params := flag.String("params", "", "Strategy params as k=v,k=v")
	resumePath := flag.String("resume", "", "Checkpoint file to resume from")
	checkpointOut := flag.String("checkpoint-out", "", "Write the final checkpoint here")
	profileAddr := flag.String("profile-addr", "", "Pyroscope server address (empty=disabled)")
	statsInterval := flag.Duration("stats-interval", 0, "Counter logging interval (0=disable)")
	queueCap := flag.Int("queue-cap", 64, "Ingest queue capacity in batches")
	flag.Parse()

	if *inputPath == "" {
		return errors.New("missing input; use -input")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-sys.Shutdown():
			stop()
		case <-ctx.Done():
		}
	}()

	if *profileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "tickbt",
			ServerAddress:   *profileAddr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return fmt.Errorf("pyroscope start failed: %w", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	loaded, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	inst, err := resolveInstrument(loaded.Registry, *contract)
	if err != nil {
		return err
	}

	strategy, err := buildStrategy(*strategyName, *params)
	if err != nil {
		return err
	}

	src, err := openSource(*inputPath, inst.Scale.PriceScale)
	if err != nil {
		return err
	}
	defer src.Close()

	var journal *recorder.Writer
	if loaded.Journal.Enabled {
		journal, err = recorder.NewWriter(loaded.Journal.WriterConfig())
		if err != nil {
			return fmt.Errorf("journal open failed: %w", err)
		}
		defer func() {
			_ = journal.Close()
		}()
	}

	engine, err := buildEngine(loaded.Backtest, inst, *resumePath)
	if err != nil {
		return err
	}

	metrics := engine.Counters()
	if *statsInterval > 0 {
		go obs.NewMonitor(metrics, nil).Run(ctx, *statsInterval)
	}

	validator := validate.New(loaded.Validation, loaded.Registry)
	pipeline := ingest.NewPipeline(ingest.PipelineConfig{
		BatchSize:     loaded.Pipeline.BatchSize,
		HaltOnInvalid: loaded.Pipeline.HaltOnInvalid,
	}, src, validator, journal, metrics)

	// runCtx releases the ingest goroutine once the engine stops, whatever
	// the reason; otherwise a full queue would block it forever.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	queue := bus.NewQueue(*queueCap)
	var (
		wg        sync.WaitGroup
		ingestErr error
		ingestSeq uint64
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer queue.Close()
		ingestErr = pipeline.Run(runCtx, func(ticks []schema.Tick) error {
			ingestSeq++
			return queue.Publish(runCtx, bus.Batch{Seq: ingestSeq, Ticks: ticks})
		})
	}()

	startedAt := time.Now().UTC()
	result, runErr := engine.Run(ctx, strategy, newQueueSource(runCtx, queue))
	cancelRun()
	wg.Wait()

	if runErr != nil {
		return fmt.Errorf("run failed after %d ticks: %w", result.TicksProcessed, runErr)
	}
	if ingestErr != nil && !errors.Is(ingestErr, context.Canceled) {
		return fmt.Errorf("ingest failed: %w", ingestErr)
	}

	if *checkpointOut != "" {
		cp := engine.Checkpoint()
		if err := backtest.WriteCheckpoint(*checkpointOut, cp); err != nil {
			return fmt.Errorf("checkpoint write failed: %w", err)
		}
	}

	printResult(inst.Contract, result, validator)

	if loaded.Database.DSN != "" {
		if err := saveRun(ctx, loaded, inst.Contract, startedAt, result, engine); err != nil {
			return fmt.Errorf("save run failed: %w", err)
		}
	}
	return nil
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return defaultLoaded()
	}
	return ops.Load(path)
}

// defaultLoaded covers config-less runs with a one-contract registry.
func defaultLoaded() (ops.Loaded, error) {
	reg := schema.NewRegistry()
	if _, err := reg.AddInstrument(schema.Instrument{
		Contract: "H25",
		Scale:    schema.ScaleSpec{PriceScale: 2, NotionalScale: 2},
		MinTick:  25,
	}); err != nil {
		return ops.Loaded{}, err
	}
	return ops.Loaded{
		Registry: reg,
		Validation: validate.Config{
			Level: validate.LevelStandard,
		},
		Backtest: backtest.Config{
			InitialCapital: 100_000_000,
			SlippageTicks:  1,
		},
	}, nil
}

func resolveInstrument(reg *schema.Registry, contract string) (schema.Instrument, error) {
	if contract == "" {
		inst, ok := reg.InstrumentAt(0)
		if !ok {
			return schema.Instrument{}, errors.New("registry has no instruments")
		}
		return inst, nil
	}
	inst, ok := reg.InstrumentByContract(contract)
	if !ok {
		return schema.Instrument{}, fmt.Errorf("contract not in registry: %s", contract)
	}
	return inst, nil
}

func buildStrategy(name, params string) (backtest.Strategy, error) {
	var strategy backtest.Strategy
	switch name {
	case "imbalance":
		strategy = backtest.NewImbalanceStrategy()
	default:
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	if params == "" {
		return strategy, nil
	}
	for _, pair := range strings.Split(params, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("bad strategy param: %s", pair)
		}
		if err := strategy.SetParam(key, value); err != nil {
			return nil, err
		}
	}
	return strategy, nil
}

type tickSource interface {
	ingest.Source
	Close() error
}

func openSource(path string, scale schema.Scale) (tickSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ingest.OpenCSV(path, scale)
	case ".jsonl":
		return ingest.OpenJSONL(path, scale)
	default:
		return nil, fmt.Errorf("unsupported feed format: %s", path)
	}
}

func buildEngine(cfg backtest.Config, inst schema.Instrument, resumePath string) (*backtest.Engine, error) {
	if resumePath == "" {
		return backtest.New(cfg, inst)
	}
	cp, err := backtest.ReadCheckpoint(resumePath)
	if err != nil {
		return nil, fmt.Errorf("checkpoint read failed: %w", err)
	}
	engine, err := backtest.FromCheckpoint(cfg, inst, cp)
	if err != nil {
		return nil, err
	}
	log.Printf("resumed from checkpoint: tick=%d trades=%d", cp.TickIndex, len(cp.Trades))
	return engine, nil
}

// queueSource adapts the ingest queue to the engine's pull interface,
// carrying over the remainder when a queued batch exceeds max.
type queueSource struct {
	ctx     context.Context
	queue   *bus.Queue
	pending []schema.Tick
}

func newQueueSource(ctx context.Context, queue *bus.Queue) *queueSource {
	return &queueSource{ctx: ctx, queue: queue}
}

func (s *queueSource) NextBatch(max int) ([]schema.Tick, error) {
	for len(s.pending) == 0 {
		b, ok := s.queue.Receive(s.ctx)
		if !ok {
			if err := s.ctx.Err(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		s.pending = b.Ticks
	}
	if max > 0 && len(s.pending) > max {
		out := s.pending[:max]
		s.pending = s.pending[max:]
		return out, nil
	}
	out := s.pending
	s.pending = nil
	return out, nil
}

func printResult(contract string, result backtest.Result, validator *validate.Validator) {
	m := result.Metrics
	vm := validator.Metrics()
	log.Printf("run %s: state=%s ticks=%d elapsed=%s rate=%.0f/s", contract, result.State, result.TicksProcessed, result.Elapsed, result.TicksPerSecond)
	log.Printf("validation: validated=%d passed=%d failed=%d warned=%d", vm.Validated, vm.Passed, vm.Failed, vm.Warned)
	log.Printf("trades=%d win_rate=%.2f sharpe=%.3f max_drawdown=%d total_return=%.4f final_equity=%d",
		m.TotalTrades, m.WinRate, m.SharpeRatio, m.MaxDrawdown, m.TotalReturn, m.FinalEquity)
}

func saveRun(ctx context.Context, loaded ops.Loaded, contract string, startedAt time.Time, result backtest.Result, engine *backtest.Engine) error {
	store, err := persist.OpenStore(conn.Config{DSN: loaded.Database.DSN})
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()
	return store.SaveRun(ctx, persist.Run{
		Contract:       contract,
		StartedAt:      startedAt,
		Elapsed:        result.Elapsed,
		TicksProcessed: result.TicksProcessed,
		InitialCapital: loaded.Backtest.InitialCapital,
		Metrics:        result.Metrics,
		Trades:         engine.Trades(),
		Curve:          engine.EquityCurve(),
	})
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
