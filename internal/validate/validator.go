package validate

import (
	"fmt"
	"runtime"
	"sync"

	"main/internal/schema"
)

// Level selects validation strictness.
type Level uint8

const (
	// LevelNone accepts every tick. Used only on the fast path where the
	// caller accepts raw data.
	LevelNone Level = iota
	// LevelBasic checks field sanity: price, volume, timestamp, contract.
	LevelBasic
	// LevelStandard adds bounded-range and type-specific rules.
	LevelStandard
	// LevelStrict adds tick-increment conformance and sequence auditing.
	LevelStrict
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "None"
	case LevelBasic:
		return "Basic"
	case LevelStandard:
		return "Standard"
	case LevelStrict:
		return "Strict"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// Outcome is the verdict for one tick. Outcomes accumulate; a failed tick
// never aborts its batch, the caller decides whether to drop or halt.
type Outcome struct {
	Index    int
	Valid    bool
	Errors   []string
	Warnings []string
}

// Config controls validator behavior.
type Config struct {
	Level Level

	// Workers is the shard count for ValidateBatchParallel.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// DefaultPriceBandLow/High bound prices for contracts that are not in
	// the registry. Zero values disable the default band.
	DefaultPriceBandLow  schema.Price
	DefaultPriceBandHigh schema.Price

	// MaxGapNs flags inter-tick gaps larger than this at Strict level.
	// Zero disables gap auditing.
	MaxGapNs int64
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Validator checks ticks against an escalating rule set. Counters are scoped
// to the instance so concurrent validators do not interfere.
type Validator struct {
	cfg     Config
	reg     *schema.Registry
	metrics Metrics
}

// New creates a validator. The registry may be nil; Strict tick-increment
// conformance is then skipped for all contracts.
func New(cfg Config, reg *schema.Registry) *Validator {
	return &Validator{cfg: cfg.withDefaults(), reg: reg}
}

// NewProduction returns a Standard-level validator with sequential defaults.
func NewProduction(reg *schema.Registry) *Validator {
	return New(Config{Level: LevelStandard}, reg)
}

// NewHighThroughput returns a Basic-level validator sized for parallel
// batch validation.
func NewHighThroughput(reg *schema.Registry) *Validator {
	return New(Config{Level: LevelBasic}, reg)
}

// Level returns the configured strictness.
func (v *Validator) Level() Level {
	return v.cfg.Level
}

// ValidateTick checks a single tick. prev carries the preceding tick of the
// feed for sequence auditing; pass nil for the first tick.
func (v *Validator) ValidateTick(t schema.Tick, index int, prev *schema.Tick) Outcome {
	out := v.check(t, index, prev)
	v.metrics.observe(t, v.cfg.Level, out)
	return out
}

// ValidateBatch validates an ordered batch in a single pass. Results are
// returned in input order.
func (v *Validator) ValidateBatch(ticks []schema.Tick) []Outcome {
	results := make([]Outcome, len(ticks))
	for i := range ticks {
		var prev *schema.Tick
		if i > 0 {
			prev = &ticks[i-1]
		}
		results[i] = v.ValidateTick(ticks[i], i, prev)
	}
	return results
}

// ValidateBatchParallel partitions the batch into contiguous shards and
// validates them independently. Each shard reads only the input slice, so
// there is no shared mutable state and the result is identical to
// ValidateBatch for the same input and level.
func (v *Validator) ValidateBatchParallel(ticks []schema.Tick) []Outcome {
	n := len(ticks)
	if n == 0 {
		return nil
	}
	workers := v.cfg.Workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return v.ValidateBatch(ticks)
	}

	results := make([]Outcome, n)
	shard := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += shard {
		end := start + shard
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				var prev *schema.Tick
				if i > 0 {
					prev = &ticks[i-1]
				}
				results[i] = v.ValidateTick(ticks[i], i, prev)
			}
		}(start, end)
	}
	wg.Wait()
	return results
}

func (v *Validator) check(t schema.Tick, index int, prev *schema.Tick) Outcome {
	out := Outcome{Index: index, Valid: true}
	if v.cfg.Level == LevelNone {
		return out
	}

	v.checkBasic(t, &out)
	if v.cfg.Level >= LevelStandard {
		v.checkStandard(t, &out)
	}
	if v.cfg.Level >= LevelStrict {
		v.checkStrict(t, prev, &out)
	}
	out.Valid = len(out.Errors) == 0
	return out
}

func (v *Validator) checkBasic(t schema.Tick, out *Outcome) {
	if t.Price <= 0 && !t.Type.IsInformational() {
		out.Errors = append(out.Errors, fmt.Sprintf("non-positive price %d for %s", t.Price, t.Type))
	}
	if t.Price < 0 {
		out.Errors = append(out.Errors, fmt.Sprintf("negative price %d", t.Price))
	}
	if t.Volume < 0 {
		out.Errors = append(out.Errors, fmt.Sprintf("negative volume %d", t.Volume))
	}
	if t.TimestampNs <= 0 {
		out.Errors = append(out.Errors, fmt.Sprintf("non-positive timestamp %d", t.TimestampNs))
	}
	if !validContractMonth(t.ContractMonth) {
		out.Errors = append(out.Errors, fmt.Sprintf("malformed contract month %q", t.Contract()))
	}
}

func (v *Validator) checkStandard(t schema.Tick, out *Outcome) {
	low, high := v.priceBand(t)
	if t.Price > 0 {
		if low > 0 && t.Price < low {
			out.Errors = append(out.Errors, fmt.Sprintf("price %d below band %d", t.Price, low))
		}
		if high > 0 && t.Price > high {
			out.Errors = append(out.Errors, fmt.Sprintf("price %d above band %d", t.Price, high))
		}
	}

	if t.Type == schema.MDTTrade && t.Volume <= 0 {
		out.Errors = append(out.Errors, fmt.Sprintf("trade with volume %d", t.Volume))
	}

	switch t.Level {
	case schema.LevelL2:
		if t.Operation == schema.OpNone {
			out.Errors = append(out.Errors, "L2 tick without book operation")
		}
		if t.Depth < 1 {
			out.Errors = append(out.Errors, fmt.Sprintf("L2 tick with depth %d", t.Depth))
		}
	case schema.LevelL1:
		if t.Operation != schema.OpNone || t.Depth != 0 {
			out.Errors = append(out.Errors, "L1 tick carrying L2 operation fields")
		}
	default:
		out.Errors = append(out.Errors, fmt.Sprintf("unknown data level %d", t.Level))
	}
}

func (v *Validator) checkStrict(t schema.Tick, prev *schema.Tick, out *Outcome) {
	if t.Price > 0 {
		if inst, ok := v.instrument(t); ok && inst.MinTick > 0 {
			if int64(t.Price)%int64(inst.MinTick) != 0 {
				out.Errors = append(out.Errors, fmt.Sprintf("price %d off tick grid %d", t.Price, inst.MinTick))
			}
		}
	}

	if prev != nil {
		delta := t.TimestampNs - prev.TimestampNs
		if delta < 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("timestamp regression %dns", delta))
		} else if v.cfg.MaxGapNs > 0 && delta > v.cfg.MaxGapNs {
			out.Warnings = append(out.Warnings, fmt.Sprintf("sequence gap %dns", delta))
		}
	}
}

func (v *Validator) priceBand(t schema.Tick) (schema.Price, schema.Price) {
	if inst, ok := v.instrument(t); ok && (inst.PriceBandLow > 0 || inst.PriceBandHigh > 0) {
		return inst.PriceBandLow, inst.PriceBandHigh
	}
	return v.cfg.DefaultPriceBandLow, v.cfg.DefaultPriceBandHigh
}

func (v *Validator) instrument(t schema.Tick) (schema.Instrument, bool) {
	if v.reg == nil {
		return schema.Instrument{}, false
	}
	return v.reg.InstrumentByContract(t.Contract())
}

// validContractMonth accepts 1 to 4 uppercase alphanumerics with trailing
// NUL padding, the layout Tick stores.
func validContractMonth(code [4]byte) bool {
	if code[0] == 0 {
		return false
	}
	padded := false
	for _, b := range code {
		switch {
		case b == 0:
			padded = true
		case padded:
			return false
		case b >= 'A' && b <= 'Z':
		case b >= '0' && b <= '9':
		default:
			return false
		}
	}
	return true
}
