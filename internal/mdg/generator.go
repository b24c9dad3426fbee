package mdg

import (
	"fmt"
	"math/rand"

	"main/internal/schema"
)

// Config shapes the synthetic feed.
type Config struct {
	Contract  string
	BasePrice schema.Price
	MinTick   schema.Price

	// Levels is how many price levels each side carries.
	Levels int

	// StartNs and IntervalNs set the synthetic clock.
	StartNs    int64
	IntervalNs int64

	// MaxVolume bounds per-level volume, exclusive.
	MaxVolume int32

	Seed int64
}

func (c Config) withDefaults() Config {
	if c.Levels <= 0 {
		c.Levels = 5
	}
	if c.StartNs <= 0 {
		c.StartNs = 1
	}
	if c.IntervalNs <= 0 {
		c.IntervalNs = 1_000_000
	}
	if c.MaxVolume <= 1 {
		c.MaxVolume = 100
	}
	return c
}

// Generator produces a deterministic synthetic tick stream: a random walk
// of the mid with L2 quote churn around it and occasional trades. The same
// seed always yields the same stream, and quoted levels never cross, so
// the feed replays through an engine without integrity failures.
type Generator struct {
	cfg Config
	rng *rand.Rand

	mid schema.Price
	now int64

	// Live quoted levels per side, mirroring what a reconstructor would
	// hold after applying the stream.
	bids map[schema.Price]struct{}
	asks map[schema.Price]struct{}
}

// NewGenerator validates the config and seeds the stream.
func NewGenerator(cfg Config) (*Generator, error) {
	cfg = cfg.withDefaults()
	if cfg.Contract == "" {
		return nil, fmt.Errorf("generator contract is empty")
	}
	if cfg.BasePrice <= 0 {
		return nil, fmt.Errorf("generator base price must be positive: %d", cfg.BasePrice)
	}
	if cfg.MinTick <= 0 {
		return nil, fmt.Errorf("generator min tick must be positive: %d", cfg.MinTick)
	}
	return &Generator{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		mid:  cfg.BasePrice,
		now:  cfg.StartNs,
		bids: make(map[schema.Price]struct{}),
		asks: make(map[schema.Price]struct{}),
	}, nil
}

// Next creates the next tick in the stream.
func (g *Generator) Next() schema.Tick {
	g.now += g.cfg.IntervalNs

	// Drift the mid one tick either way, occasionally.
	switch g.rng.Intn(10) {
	case 0:
		g.mid += g.cfg.MinTick
	case 1:
		if g.mid > g.cfg.MinTick {
			g.mid -= g.cfg.MinTick
		}
	}

	volume := int32(1 + g.rng.Int31n(g.cfg.MaxVolume-1))

	switch g.rng.Intn(10) {
	case 0: // trade at the touch
		price := g.mid
		if g.rng.Intn(2) == 0 {
			price += g.cfg.MinTick
		}
		return schema.NewTick(schema.LevelL1, schema.MDTTrade, g.now, price, volume, g.cfg.Contract)
	case 1: // session stat
		mdt := schema.MDTSessionHigh
		if g.rng.Intn(2) == 0 {
			mdt = schema.MDTSessionLow
		}
		return schema.NewTick(schema.LevelL1, mdt, g.now, g.mid, 0, g.cfg.Contract)
	}

	// Quote churn at a random depth. Prices clamp one tick inside the
	// opposite side's live extreme so the stream never crosses; a bid with
	// no room left becomes an ask instead.
	depth := uint8(1 + g.rng.Intn(g.cfg.Levels))
	offset := schema.Price(int64(depth)) * g.cfg.MinTick

	isBid := g.rng.Intn(2) != 0
	var price schema.Price
	if isBid {
		price = g.mid - offset
		if price < g.cfg.MinTick {
			price = g.cfg.MinTick
		}
		if low, ok := minPrice(g.asks); ok && price >= low {
			price = low - g.cfg.MinTick
		}
		if price < g.cfg.MinTick {
			isBid = false
		}
	}
	if !isBid {
		price = g.mid + offset
		if high, ok := maxPrice(g.bids); ok && price <= high {
			price = high + g.cfg.MinTick
		}
	}

	mdt := schema.MDTAskQuote
	side := g.asks
	if isBid {
		mdt = schema.MDTBidQuote
		side = g.bids
	}

	op := schema.OpAdd
	switch g.rng.Intn(6) {
	case 0:
		op = schema.OpUpdate
	case 1:
		op = schema.OpRemove
		volume = 0
	}
	switch op {
	case schema.OpAdd:
		side[price] = struct{}{}
	case schema.OpRemove:
		delete(side, price)
	}
	return schema.NewTick(schema.LevelL2, mdt, g.now, price, volume, g.cfg.Contract).WithL2(op, depth)
}

func minPrice(levels map[schema.Price]struct{}) (schema.Price, bool) {
	var low schema.Price
	found := false
	for p := range levels {
		if !found || p < low {
			low = p
			found = true
		}
	}
	return low, found
}

func maxPrice(levels map[schema.Price]struct{}) (schema.Price, bool) {
	var high schema.Price
	found := false
	for p := range levels {
		if !found || p > high {
			high = p
			found = true
		}
	}
	return high, found
}

// Batch creates the next n ticks.
func (g *Generator) Batch(n int) []schema.Tick {
	ticks := make([]schema.Tick, n)
	for i := range ticks {
		ticks[i] = g.Next()
	}
	return ticks
}
