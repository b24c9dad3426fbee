package mdg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/book"
	"main/internal/schema"
	"main/internal/validate"
)

func testGenConfig() Config {
	return Config{
		Contract:  "H25",
		BasePrice: 450_000,
		MinTick:   25,
		Levels:    5,
		Seed:      7,
	}
}

func TestGeneratorRejectsBadConfig(t *testing.T) {
	_, err := NewGenerator(Config{BasePrice: 1, MinTick: 1})
	assert.Error(t, err)

	_, err = NewGenerator(Config{Contract: "H25", MinTick: 1})
	assert.Error(t, err)

	_, err = NewGenerator(Config{Contract: "H25", BasePrice: 1})
	assert.Error(t, err)
}

func TestGeneratorDeterministic(t *testing.T) {
	a, err := NewGenerator(testGenConfig())
	require.NoError(t, err)
	b, err := NewGenerator(testGenConfig())
	require.NoError(t, err)

	assert.Equal(t, a.Batch(500), b.Batch(500))
}

func TestGeneratorTicksAreWellFormed(t *testing.T) {
	g, err := NewGenerator(testGenConfig())
	require.NoError(t, err)

	reg := schema.NewRegistry()
	_, err = reg.AddInstrument(schema.Instrument{
		Contract:      "H25",
		Scale:         schema.ScaleSpec{PriceScale: 2, NotionalScale: 2},
		MinTick:       25,
		PriceBandLow:  1,
		PriceBandHigh: 900_000,
	})
	require.NoError(t, err)
	v := validate.New(validate.Config{Level: validate.LevelStandard}, reg)

	ticks := g.Batch(2_000)
	var prevNs int64
	for i, tk := range ticks {
		out := v.ValidateTick(tk, i, nil)
		assert.True(t, out.Valid, "tick %d: %v", i, out.Errors)
		assert.Greater(t, tk.TimestampNs, prevNs, "tick %d timestamps must advance", i)
		assert.Zero(t, tk.Price%25, "tick %d price off the grid: %d", i, tk.Price)
		prevNs = tk.TimestampNs
	}
}

func TestGeneratorCoversEventMix(t *testing.T) {
	g, err := NewGenerator(testGenConfig())
	require.NoError(t, err)

	var trades, quotes, info, removes int
	for _, tk := range g.Batch(5_000) {
		switch {
		case tk.Type == schema.MDTTrade:
			trades++
		case tk.Type.IsQuote():
			quotes++
			if tk.Operation == schema.OpRemove {
				removes++
			}
		default:
			info++
		}
	}
	assert.Positive(t, trades)
	assert.Positive(t, quotes)
	assert.Positive(t, info)
	assert.Positive(t, removes)
	assert.Greater(t, quotes, trades)
}

func TestGeneratorFeedsReconstructor(t *testing.T) {
	g, err := NewGenerator(testGenConfig())
	require.NoError(t, err)

	r := book.NewReconstructor(book.New("H25"))
	for _, tk := range g.Batch(10_000) {
		require.NoError(t, r.Process(tk))
	}

	stats := r.Stats()
	assert.EqualValues(t, 10_000, stats.TotalUpdates)
	assert.Positive(t, stats.Trades)
	assert.Positive(t, stats.QuoteUpdates)

	bids, asks := r.Book().Depth()
	assert.Positive(t, bids+asks)
}

func TestGeneratorNeverCrossesBook(t *testing.T) {
	g, err := NewGenerator(testGenConfig())
	require.NoError(t, err)

	b := book.New("H25")
	r := book.NewReconstructor(b)
	for i := 0; i < 10_000; i++ {
		tk := g.Next()
		require.NoError(t, r.Process(tk))
		if tk.Type.IsQuote() {
			require.NoError(t, b.ValidateIntegrity(), "tick %d crossed the book", i)
		}
	}
	assert.Zero(t, r.Stats().CrossedEvents)
}
