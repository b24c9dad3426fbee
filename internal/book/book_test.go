package book

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func bidAdd(ts int64, price schema.Price, volume int32) schema.Tick {
	return schema.NewTick(schema.LevelL2, schema.MDTBidQuote, ts, price, volume, "H25").
		WithL2(schema.OpAdd, 1)
}

func askAdd(ts int64, price schema.Price, volume int32) schema.Tick {
	return schema.NewTick(schema.LevelL2, schema.MDTAskQuote, ts, price, volume, "H25").
		WithL2(schema.OpAdd, 1)
}

func mustProcess(t *testing.T, r *Reconstructor, ticks ...schema.Tick) {
	t.Helper()
	for _, tick := range ticks {
		require.NoError(t, r.Process(tick))
	}
}

func TestEmptyBook(t *testing.T) {
	b := New("H25")

	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
	_, ok = b.Spread()
	assert.False(t, ok)
	_, ok = b.Mid()
	assert.False(t, ok)
	assert.NoError(t, b.ValidateIntegrity())
}

func TestSpreadAndMidScenario(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)

	// Prices at scale 2: 4500.00 and 4500.25.
	mustProcess(t, r,
		bidAdd(1_000, 450_000, 10),
		askAdd(2_000, 450_025, 10),
	)

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.Equal(t, schema.Price(25), spread, "spread 0.25 at scale 2")

	mid, ok := b.Mid()
	require.True(t, ok)
	assert.Equal(t, schema.Price(4_500_125), mid, "mid 4500.125 at scale 3")
	assert.Equal(t, int64(2_000), b.LastUpdateNs())

	remove := schema.NewTick(schema.LevelL2, schema.MDTBidQuote, 3_000, 450_000, 0, "H25").
		WithL2(schema.OpRemove, 1)
	mustProcess(t, r, remove)

	_, ok = b.BestBid()
	assert.False(t, ok)
	_, ok = b.Spread()
	assert.False(t, ok)
}

func TestL2AddUpdateRemoveNetting(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)

	mustProcess(t, r, bidAdd(1, 450_000, 10))
	lvl, ok := b.BidLevel(450_000)
	require.True(t, ok)
	assert.Equal(t, schema.Quantity(10), lvl.Quantity)

	// Add at an existing price overwrites.
	mustProcess(t, r, bidAdd(2, 450_000, 7))
	lvl, _ = b.BidLevel(450_000)
	assert.Equal(t, schema.Quantity(7), lvl.Quantity)

	update := schema.NewTick(schema.LevelL2, schema.MDTBidQuote, 3, 450_000, 4, "H25").
		WithL2(schema.OpUpdate, 1)
	mustProcess(t, r, update)
	lvl, _ = b.BidLevel(450_000)
	assert.Equal(t, schema.Quantity(4), lvl.Quantity)
	assert.Equal(t, int64(3), lvl.UpdateNs)

	// Update to zero removes the level.
	update.Volume = 0
	update.TimestampNs = 4
	mustProcess(t, r, update)
	_, ok = b.BidLevel(450_000)
	assert.False(t, ok)
}

func TestL2AbsentPriceNoOps(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)

	remove := schema.NewTick(schema.LevelL2, schema.MDTBidQuote, 1, 450_000, 0, "H25").
		WithL2(schema.OpRemove, 1)
	require.NoError(t, r.Process(remove))

	update := schema.NewTick(schema.LevelL2, schema.MDTBidQuote, 2, 450_000, 9, "H25").
		WithL2(schema.OpUpdate, 1)
	require.NoError(t, r.Process(update))

	bids, asks := b.Depth()
	assert.Zero(t, bids)
	assert.Zero(t, asks)
	assert.Equal(t, int64(2), b.LastUpdateNs(), "no-ops still stamp the book")
}

func TestL2AddNegativeQuantity(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)

	bad := bidAdd(1, 450_000, -5)
	err := r.Process(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestL1WholesaleReplace(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)

	quote := func(ts int64, price schema.Price, volume int32) schema.Tick {
		return schema.NewTick(schema.LevelL1, schema.MDTBidQuote, ts, price, volume, "H25")
	}

	mustProcess(t, r, quote(1, 450_000, 10))
	best, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, schema.Price(450_000), best)

	mustProcess(t, r, quote(2, 450_025, 8))
	best, _ = b.BestBid()
	assert.Equal(t, schema.Price(450_025), best)
	bids, _ := b.Depth()
	assert.Equal(t, 1, bids, "L1 side holds a single level")

	// Quantity zero empties the side.
	mustProcess(t, r, quote(3, 450_025, 0))
	_, ok = b.BestBid()
	assert.False(t, ok)
}

func TestImpliedQuotesRouteLikeOutright(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)

	implied := schema.NewTick(schema.LevelL2, schema.MDTImpliedBid, 1, 449_975, 3, "H25").
		WithL2(schema.OpAdd, 2)
	mustProcess(t, r, implied, bidAdd(2, 450_000, 10))

	best, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, schema.Price(450_000), best)
	assert.Equal(t, schema.Quantity(13), b.TotalBidVolume())
}

func TestTradeAndInformationalLeaveLevelsUntouched(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)
	mustProcess(t, r, bidAdd(1, 450_000, 10))

	trade := schema.NewTick(schema.LevelL1, schema.MDTTrade, 2, 450_025, 3, "H25")
	settle := schema.NewTick(schema.LevelL1, schema.MDTSettlement, 3, 450_050, 0, "H25")
	oi := schema.NewTick(schema.LevelL1, schema.MDTOpenInterest, 4, 0, 1200, "H25")
	mustProcess(t, r, trade, settle, oi)

	price, volume, ts := b.LastTrade()
	assert.Equal(t, schema.Price(450_025), price)
	assert.Equal(t, int32(3), volume)
	assert.Equal(t, int64(2), ts)

	bids, asks := b.Depth()
	assert.Equal(t, 1, bids)
	assert.Zero(t, asks)
	assert.Equal(t, int64(4), b.LastUpdateNs())

	stats := r.Stats()
	assert.Equal(t, int64(4), stats.TotalUpdates)
	assert.Equal(t, int64(1), stats.QuoteUpdates)
	assert.Equal(t, int64(1), stats.Trades)
	assert.Equal(t, int64(2), stats.Informational)
}

func TestBestPricesAcrossManyLevels(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)

	for i := 0; i < 10; i++ {
		mustProcess(t, r,
			bidAdd(int64(i), schema.Price(450_000-int64(i)*25), 5),
			askAdd(int64(i), schema.Price(450_100+int64(i)*25), 5),
		)
	}

	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	assert.Equal(t, schema.Price(450_000), bid)
	assert.Equal(t, schema.Price(450_100), ask)
	assert.NoError(t, b.ValidateIntegrity())

	bids, asks := b.Depth()
	assert.Equal(t, 10, bids)
	assert.Equal(t, 10, asks)
}

func TestValidateIntegrityCrossedBook(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)

	mustProcess(t, r,
		bidAdd(1, 450_050, 5),
		askAdd(2, 450_025, 5),
	)
	assert.ErrorIs(t, b.ValidateIntegrity(), ErrIntegrityViolation)
}

func TestRandomizedVolumeTotals(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)
	rng := rand.New(rand.NewSource(7))

	// Shadow model of the bid side.
	model := make(map[schema.Price]schema.Quantity)

	for i := 0; i < 5_000; i++ {
		price := schema.Price(440_000 + int64(rng.Intn(100))*25)
		volume := int32(rng.Intn(50))
		op := schema.BookOperation(1 + rng.Intn(3))

		tick := schema.NewTick(schema.LevelL2, schema.MDTBidQuote, int64(i+1), price, volume, "H25").
			WithL2(op, 1)
		require.NoError(t, r.Process(tick))

		switch op {
		case schema.OpAdd:
			model[price] = schema.Quantity(volume)
		case schema.OpUpdate:
			if _, ok := model[price]; ok {
				if volume == 0 {
					delete(model, price)
				} else {
					model[price] = schema.Quantity(volume)
				}
			}
		case schema.OpRemove:
			delete(model, price)
		}
	}

	var want schema.Quantity
	var wantBest schema.Price
	for p, q := range model {
		want += q
		if p > wantBest {
			wantBest = p
		}
	}
	assert.Equal(t, want, b.TotalBidVolume())

	bids, _ := b.Depth()
	assert.Equal(t, len(model), bids)
	if len(model) > 0 {
		best, ok := b.BestBid()
		require.True(t, ok)
		assert.Equal(t, wantBest, best)
	}
}

func TestReset(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)
	mustProcess(t, r,
		bidAdd(1, 450_000, 10),
		askAdd(2, 450_025, 10),
		schema.NewTick(schema.LevelL1, schema.MDTTrade, 3, 450_025, 1, "H25"),
	)

	b.Reset()
	bids, asks := b.Depth()
	assert.Zero(t, bids)
	assert.Zero(t, asks)
	assert.Zero(t, b.LastUpdateNs())
	price, volume, ts := b.LastTrade()
	assert.Zero(t, price)
	assert.Zero(t, volume)
	assert.Zero(t, ts)
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)
	mustProcess(t, r,
		bidAdd(1, 450_000, 10),
		bidAdd(2, 449_975, 5),
		askAdd(3, 450_025, 8),
	)

	snap := b.Snapshot()
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, schema.Price(450_000), snap.Bids[0].Price, "bids best first")
	assert.Equal(t, schema.Price(449_975), snap.Bids[1].Price)

	spread, ok := snap.Spread()
	require.True(t, ok)
	assert.Equal(t, schema.Price(25), spread)
	mid, ok := snap.Mid()
	require.True(t, ok)
	assert.Equal(t, schema.Price(4_500_125), mid)
	assert.InDelta(t, (10.0-8.0)/18.0, snap.Imbalance(), 1e-9)

	// Later mutation must not leak into the snapshot.
	mustProcess(t, r, bidAdd(4, 450_000, 99))
	assert.Equal(t, schema.Quantity(10), snap.Bids[0].Quantity)
	assert.Equal(t, schema.Quantity(15), snap.TotalBidVolume())
	assert.Equal(t, schema.Quantity(8), snap.TotalAskVolume())
}

func TestSnapshotDepthWeighted(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)
	mustProcess(t, r,
		bidAdd(1, 450_000, 10),
		bidAdd(2, 449_975, 30),
		askAdd(3, 450_025, 20),
		askAdd(4, 450_050, 20),
	)

	snap := b.Snapshot()
	bid, ok := snap.DepthWeightedBid()
	require.True(t, ok)
	// (450000*10 + 449975*30) / 40, rounded.
	assert.Equal(t, schema.Price(449_981), bid)
	ask, ok := snap.DepthWeightedAsk()
	require.True(t, ok)
	assert.Equal(t, schema.Price(450_038), ask)

	_, ok = Snapshot{}.DepthWeightedBid()
	assert.False(t, ok)
}

func TestSnapshotMarketImpact(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)
	mustProcess(t, r,
		bidAdd(1, 450_000, 10),
		bidAdd(2, 449_975, 10),
		askAdd(3, 450_025, 5),
		askAdd(4, 450_050, 5),
	)
	snap := b.Snapshot()

	// Buy 5 fills entirely at the touch.
	price, ok := snap.MarketImpact(true, 5)
	require.True(t, ok)
	assert.Equal(t, schema.Price(450_025), price)

	// Buy 8 sweeps into the second ask level: (450025*5 + 450050*3) / 8.
	price, ok = snap.MarketImpact(true, 8)
	require.True(t, ok)
	assert.Equal(t, schema.Price(450_034), price)

	// Sell 15 sweeps both bid levels: (450000*10 + 449975*5) / 15.
	price, ok = snap.MarketImpact(false, 15)
	require.True(t, ok)
	assert.Equal(t, schema.Price(449_992), price)

	_, ok = snap.MarketImpact(true, 11)
	assert.False(t, ok, "more than resting ask liquidity")
	_, ok = snap.MarketImpact(true, 0)
	assert.False(t, ok)
}

func TestReconstructorOperationStats(t *testing.T) {
	b := New("H25")
	r := NewReconstructor(b)
	mustProcess(t, r,
		bidAdd(1, 450_000, 10),
		bidAdd(2, 449_975, 5),
		askAdd(3, 450_025, 8),
		schema.NewTick(schema.LevelL2, schema.MDTBidQuote, 4, 450_000, 12, "H25").
			WithL2(schema.OpUpdate, 1),
		schema.NewTick(schema.LevelL2, schema.MDTAskQuote, 5, 450_025, 0, "H25").
			WithL2(schema.OpRemove, 1),
		// Crosses the book: the new ask rests below the best bid.
		askAdd(6, 449_975, 3),
	)

	st := r.Stats()
	assert.Equal(t, int64(4), st.Adds)
	assert.Equal(t, int64(1), st.Updates)
	assert.Equal(t, int64(1), st.Removes)
	assert.Equal(t, 2, st.MaxDepth)
	assert.Equal(t, int64(1), st.CrossedEvents, "ask below best bid")
}
