package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"main/internal/book"
	"main/internal/schema"
)

// Checkpoint captures everything needed to resume a run in a fresh engine:
// account, book levels, trade log, and equity curve.
type Checkpoint struct {
	TakenAtNs   int64  `json:"takenAtNs"`
	Contract    string `json:"contract"`
	TickIndex   int64  `json:"tickIndex"`
	NextTradeID uint64 `json:"nextTradeId"`

	Capital       schema.Notional `json:"capital"`
	Position      schema.Quantity `json:"position"`
	EntryNotional schema.Notional `json:"entryNotional"`

	Bids []CheckpointLevel `json:"bids"`
	Asks []CheckpointLevel `json:"asks"`

	LastUpdateNs    int64        `json:"lastUpdateNs"`
	LastTradePrice  schema.Price `json:"lastTradePrice"`
	LastTradeVolume int32        `json:"lastTradeVolume"`
	LastTradeNs     int64        `json:"lastTradeNs"`

	Trades      []TradeRecord `json:"trades"`
	EquityCurve []EquityPoint `json:"equityCurve"`
}

// CheckpointLevel is one persisted book level.
type CheckpointLevel struct {
	Price    schema.Price    `json:"price"`
	Quantity schema.Quantity `json:"quantity"`
	UpdateNs int64           `json:"updateNs"`
}

func checkpointLevels(levels []book.PriceLevel) []CheckpointLevel {
	if len(levels) == 0 {
		return nil
	}
	out := make([]CheckpointLevel, len(levels))
	for i, lvl := range levels {
		out[i] = CheckpointLevel{Price: lvl.Price, Quantity: lvl.Quantity, UpdateNs: lvl.UpdateNs}
	}
	return out
}

// Checkpoint builds a checkpoint from the engine's current state. It may be
// taken at any point; periodic checkpoints are driven by
// Config.CheckpointIntervalTicks.
func (e *Engine) Checkpoint() Checkpoint {
	snap := e.recon.Book().Snapshot()
	cp := Checkpoint{
		TakenAtNs:   time.Now().UTC().UnixNano(),
		Contract:    snap.Contract,
		TickIndex:   e.tickIndex,
		NextTradeID: e.nextTradeID,

		Capital:       e.account.Capital,
		Position:      e.account.Position,
		EntryNotional: e.account.EntryNotional,

		Bids: checkpointLevels(snap.Bids),
		Asks: checkpointLevels(snap.Asks),

		LastUpdateNs:    snap.LastUpdateNs,
		LastTradePrice:  snap.LastTradePrice,
		LastTradeVolume: snap.LastTradeVolume,
		LastTradeNs:     snap.LastTradeNs,
	}
	cp.Trades = append(cp.Trades, e.trades...)
	cp.EquityCurve = append(cp.EquityCurve, e.curve...)
	return cp
}

// WriteCheckpoint writes a checkpoint to disk as JSON.
func WriteCheckpoint(path string, cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadCheckpoint loads a checkpoint from disk.
func ReadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	return cp, nil
}
