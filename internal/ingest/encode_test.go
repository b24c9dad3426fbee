package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "4500.25", FormatPrice(450_025, 2))
	assert.Equal(t, "-4500.25", FormatPrice(-450_025, 2))
	assert.Equal(t, "0.05", FormatPrice(5, 2))
	assert.Equal(t, "4500", FormatPrice(4_500, 0))
	assert.Equal(t, "0.000001", FormatPrice(1, 6))
}

func TestFormatPriceInvertsParse(t *testing.T) {
	for _, s := range []string{"4500.25", "0.25", "-312.50", "0.00", "99999.99"} {
		p, err := ParsePrice(s, 2)
		require.NoError(t, err)
		assert.Equal(t, s, FormatPrice(p, 2))
	}
}

func feedTicks() []schema.Tick {
	return []schema.Tick{
		schema.NewTick(schema.LevelL2, schema.MDTBidQuote, 1, 450_000, 10, "H25").WithL2(schema.OpAdd, 1),
		schema.NewTick(schema.LevelL2, schema.MDTAskQuote, 2, 450_025, 8, "H25").WithL2(schema.OpUpdate, 2),
		schema.NewTick(schema.LevelL1, schema.MDTTrade, 3, 450_025, 3, "H25"),
		schema.NewTick(schema.LevelL1, schema.MDTSessionHigh, 4, 450_050, 0, "H25"),
	}
}

func TestCSVWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	w, err := CreateCSV(path, 2)
	require.NoError(t, err)
	ticks := feedTicks()
	for _, tk := range ticks {
		require.NoError(t, w.WriteTick(tk))
	}
	require.NoError(t, w.Close())

	src, err := OpenCSV(path, 2)
	require.NoError(t, err)
	defer src.Close()

	got, err := src.NextBatch(100)
	require.NoError(t, err)
	assert.Equal(t, ticks, got)
}

func TestJSONLWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	w, err := CreateJSONL(path, 2)
	require.NoError(t, err)
	ticks := feedTicks()
	for _, tk := range ticks {
		require.NoError(t, w.WriteTick(tk))
	}
	require.NoError(t, w.Close())

	src, err := OpenJSONL(path, 2)
	require.NoError(t, err)
	defer src.Close()

	got, err := src.NextBatch(100)
	require.NoError(t, err)
	assert.Equal(t, ticks, got)
}
