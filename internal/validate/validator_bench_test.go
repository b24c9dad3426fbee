package validate

import (
	"testing"

	"main/internal/schema"
)

func benchRegistry(b *testing.B) *schema.Registry {
	b.Helper()
	reg := schema.NewRegistry()
	if _, err := reg.AddInstrument(schema.Instrument{
		Contract:      "H25",
		Scale:         schema.ScaleSpec{PriceScale: 2, NotionalScale: 2},
		MinTick:       25,
		PriceBandLow:  100_000,
		PriceBandHigh: 900_000,
	}); err != nil {
		b.Fatalf("AddInstrument: %v", err)
	}
	return reg
}

// benchTicks mixes trades and L2 quotes on the instrument's tick grid.
func benchTicks(n int) []schema.Tick {
	ticks := make([]schema.Tick, 0, n)
	for i := 1; i <= n; i++ {
		price := schema.Price(450_000 + int64(i%40)*25)
		if i%5 == 0 {
			ticks = append(ticks, schema.NewTick(schema.LevelL1, schema.MDTTrade, int64(i)*1_000, price, 3, "H25"))
			continue
		}
		mdt := schema.MDTBidQuote
		if i%2 == 0 {
			mdt = schema.MDTAskQuote
		}
		ticks = append(ticks, schema.NewTick(schema.LevelL2, mdt, int64(i)*1_000, price, 10, "H25").
			WithL2(schema.OpAdd, uint8(1+i%5)))
	}
	return ticks
}

func BenchmarkValidateBatchStrict1K(b *testing.B) {
	benchmarkValidateBatch(b, Config{Level: LevelStrict}, 1_000)
}

func BenchmarkValidateBatchStrict10K(b *testing.B) {
	benchmarkValidateBatch(b, Config{Level: LevelStrict}, 10_000)
}

func BenchmarkValidateBatchParallelStrict10K(b *testing.B) {
	v := New(Config{Level: LevelStrict, Workers: 4}, benchRegistry(b))
	ticks := benchTicks(10_000)
	b.ReportAllocs()
	for b.Loop() {
		out := v.ValidateBatchParallel(ticks)
		_ = out
	}
}

func benchmarkValidateBatch(b *testing.B, cfg Config, n int) {
	b.Helper()
	v := New(cfg, benchRegistry(b))
	ticks := benchTicks(n)
	b.ReportAllocs()
	for b.Loop() {
		out := v.ValidateBatch(ticks)
		_ = out
	}
}
