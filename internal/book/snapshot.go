package book

import "main/internal/schema"

// Snapshot is an immutable copy of the book taken at one point in the feed.
// Strategies and other threads consume snapshots, never the live book.
type Snapshot struct {
	Contract     string
	LastUpdateNs int64

	// Bids are sorted best first (descending price), Asks best first
	// (ascending price).
	Bids []PriceLevel
	Asks []PriceLevel

	LastTradePrice  schema.Price
	LastTradeVolume int32
	LastTradeNs     int64
}

// Snapshot copies the book's current state.
func (b *Book) Snapshot() Snapshot {
	snap := Snapshot{
		Contract:        b.contract,
		LastUpdateNs:    b.lastUpdateNs,
		LastTradePrice:  b.lastTradePrice,
		LastTradeVolume: b.lastTradeVolume,
		LastTradeNs:     b.lastTradeNs,
	}
	if n := len(b.bids.prices); n > 0 {
		snap.Bids = make([]PriceLevel, 0, n)
		for i := n - 1; i >= 0; i-- {
			snap.Bids = append(snap.Bids, *b.bids.levels[b.bids.prices[i]])
		}
	}
	if n := len(b.asks.prices); n > 0 {
		snap.Asks = make([]PriceLevel, 0, n)
		for _, p := range b.asks.prices {
			snap.Asks = append(snap.Asks, *b.asks.levels[p])
		}
	}
	return snap
}

// BestBid returns the top bid level.
func (s Snapshot) BestBid() (PriceLevel, bool) {
	if len(s.Bids) == 0 {
		return PriceLevel{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the top ask level.
func (s Snapshot) BestAsk() (PriceLevel, bool) {
	if len(s.Asks) == 0 {
		return PriceLevel{}, false
	}
	return s.Asks[0], true
}

// Spread returns ask minus bid in scaled price units.
func (s Snapshot) Spread() (schema.Price, bool) {
	bid, okBid := s.BestBid()
	ask, okAsk := s.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// Mid returns the midpoint at one extra decimal digit of scale, matching
// Book.Mid.
func (s Snapshot) Mid() (schema.Price, bool) {
	bid, okBid := s.BestBid()
	ask, okAsk := s.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid.Price + ask.Price) * 5, true
}

// TotalBidVolume sums bid level quantities.
func (s Snapshot) TotalBidVolume() schema.Quantity {
	var sum schema.Quantity
	for _, lvl := range s.Bids {
		sum += lvl.Quantity
	}
	return sum
}

// TotalAskVolume sums ask level quantities.
func (s Snapshot) TotalAskVolume() schema.Quantity {
	var sum schema.Quantity
	for _, lvl := range s.Asks {
		sum += lvl.Quantity
	}
	return sum
}

// DepthWeightedBid returns the quantity-weighted average price across all
// bid levels, rounded to the nearest scaled unit.
func (s Snapshot) DepthWeightedBid() (schema.Price, bool) {
	return depthWeighted(s.Bids)
}

// DepthWeightedAsk returns the quantity-weighted average price across all
// ask levels, rounded to the nearest scaled unit.
func (s Snapshot) DepthWeightedAsk() (schema.Price, bool) {
	return depthWeighted(s.Asks)
}

func depthWeighted(levels []PriceLevel) (schema.Price, bool) {
	var sumPQ, sumQ int64
	for _, lvl := range levels {
		sumPQ += int64(lvl.Price) * int64(lvl.Quantity)
		sumQ += int64(lvl.Quantity)
	}
	if sumQ == 0 {
		return 0, false
	}
	return schema.Price((sumPQ + sumQ/2) / sumQ), true
}

// MarketImpact returns the volume-weighted average fill price for sweeping
// qty contracts from one side of the book: asks for a buy, bids for a sell.
// Returns false when resting liquidity cannot fill qty.
func (s Snapshot) MarketImpact(buy bool, qty schema.Quantity) (schema.Price, bool) {
	if qty <= 0 {
		return 0, false
	}
	levels := s.Bids
	if buy {
		levels = s.Asks
	}
	var sumPQ int64
	remaining := qty
	for _, lvl := range levels {
		take := lvl.Quantity
		if take > remaining {
			take = remaining
		}
		sumPQ += int64(lvl.Price) * int64(take)
		remaining -= take
		if remaining == 0 {
			filled := int64(qty)
			return schema.Price((sumPQ + filled/2) / filled), true
		}
	}
	return 0, false
}

// Imbalance returns (bid-ask)/(bid+ask) top-of-book volume imbalance in
// [-1, 1], or zero when both touches are empty.
func (s Snapshot) Imbalance() float64 {
	var bid, ask schema.Quantity
	if lvl, ok := s.BestBid(); ok {
		bid = lvl.Quantity
	}
	if lvl, ok := s.BestAsk(); ok {
		ask = lvl.Quantity
	}
	total := bid + ask
	if total == 0 {
		return 0
	}
	return float64(bid-ask) / float64(total)
}
