package book

import (
	"errors"
	"sort"

	"main/internal/schema"
)

var (
	ErrInvalidQuantity    = errors.New("book level quantity is negative")
	ErrIntegrityViolation = errors.New("book integrity violated, bid crosses ask")
)

// PriceLevel is one aggregated level of the book.
type PriceLevel struct {
	Price    schema.Price
	Quantity schema.Quantity
	UpdateNs int64
}

// side keeps levels addressable by price and iterable in price order.
// prices stays sorted ascending so best lookup is O(1) and mutation is
// O(log n) search plus slice shift.
type side struct {
	levels map[schema.Price]*PriceLevel
	prices []schema.Price
}

func newSide() side {
	return side{levels: make(map[schema.Price]*PriceLevel)}
}

func (s *side) set(price schema.Price, qty schema.Quantity, ts int64) {
	if lvl, ok := s.levels[price]; ok {
		lvl.Quantity = qty
		lvl.UpdateNs = ts
		return
	}
	s.levels[price] = &PriceLevel{Price: price, Quantity: qty, UpdateNs: ts}
	i := sort.Search(len(s.prices), func(i int) bool { return s.prices[i] >= price })
	s.prices = append(s.prices, 0)
	copy(s.prices[i+1:], s.prices[i:])
	s.prices[i] = price
}

func (s *side) remove(price schema.Price) bool {
	if _, ok := s.levels[price]; !ok {
		return false
	}
	delete(s.levels, price)
	i := sort.Search(len(s.prices), func(i int) bool { return s.prices[i] >= price })
	s.prices = append(s.prices[:i], s.prices[i+1:]...)
	return true
}

func (s *side) clear() {
	if len(s.prices) == 0 {
		return
	}
	s.levels = make(map[schema.Price]*PriceLevel)
	s.prices = s.prices[:0]
}

func (s *side) min() (schema.Price, bool) {
	if len(s.prices) == 0 {
		return 0, false
	}
	return s.prices[0], true
}

func (s *side) max() (schema.Price, bool) {
	if len(s.prices) == 0 {
		return 0, false
	}
	return s.prices[len(s.prices)-1], true
}

func (s *side) total() schema.Quantity {
	var sum schema.Quantity
	for _, lvl := range s.levels {
		sum += lvl.Quantity
	}
	return sum
}

// Book is the reconstructed limit order book for one contract. It is owned
// by a single goroutine; cross-thread consumers read Snapshot copies.
type Book struct {
	contract string

	bids side
	asks side

	lastUpdateNs    int64
	lastTradePrice  schema.Price
	lastTradeVolume int32
	lastTradeNs     int64
}

// New creates an empty book for the given contract month code.
func New(contract string) *Book {
	return &Book{contract: contract, bids: newSide(), asks: newSide()}
}

// Restore rebuilds a book from persisted levels and trade state. Level
// order in the inputs does not matter.
func Restore(contract string, bids, asks []PriceLevel, lastUpdateNs int64, tradePrice schema.Price, tradeVolume int32, tradeNs int64) *Book {
	b := New(contract)
	for _, lvl := range bids {
		b.bids.set(lvl.Price, lvl.Quantity, lvl.UpdateNs)
	}
	for _, lvl := range asks {
		b.asks.set(lvl.Price, lvl.Quantity, lvl.UpdateNs)
	}
	b.lastUpdateNs = lastUpdateNs
	b.lastTradePrice = tradePrice
	b.lastTradeVolume = tradeVolume
	b.lastTradeNs = tradeNs
	return b
}

// Contract returns the contract month code the book tracks.
func (b *Book) Contract() string {
	return b.contract
}

// LastUpdateNs returns the timestamp of the most recently applied tick, in
// feed order, not chronological order.
func (b *Book) LastUpdateNs() int64 {
	return b.lastUpdateNs
}

// LastTrade returns the most recent trade print.
func (b *Book) LastTrade() (price schema.Price, volume int32, ts int64) {
	return b.lastTradePrice, b.lastTradeVolume, b.lastTradeNs
}

// BestBid returns the highest bid price.
func (b *Book) BestBid() (schema.Price, bool) {
	return b.bids.max()
}

// BestAsk returns the lowest ask price.
func (b *Book) BestAsk() (schema.Price, bool) {
	return b.asks.min()
}

// BidLevel returns the level at the given bid price.
func (b *Book) BidLevel(price schema.Price) (PriceLevel, bool) {
	if lvl, ok := b.bids.levels[price]; ok {
		return *lvl, true
	}
	return PriceLevel{}, false
}

// AskLevel returns the level at the given ask price.
func (b *Book) AskLevel(price schema.Price) (PriceLevel, bool) {
	if lvl, ok := b.asks.levels[price]; ok {
		return *lvl, true
	}
	return PriceLevel{}, false
}

// Spread returns ask minus bid in scaled price units. The second return is
// false unless both sides are populated.
func (b *Book) Spread() (schema.Price, bool) {
	bid, okBid := b.bids.max()
	ask, okAsk := b.asks.min()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask - bid, true
}

// Mid returns the midpoint at one extra decimal digit of scale, so an odd
// bid+ask sum stays exact: with prices at scale 2, the mid of 4500.00 and
// 4500.25 is 4500125 at scale 3, which prints as 4500.125.
func (b *Book) Mid() (schema.Price, bool) {
	bid, okBid := b.bids.max()
	ask, okAsk := b.asks.min()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid + ask) * 5, true
}

// TotalBidVolume sums all bid level quantities.
func (b *Book) TotalBidVolume() schema.Quantity {
	return b.bids.total()
}

// TotalAskVolume sums all ask level quantities.
func (b *Book) TotalAskVolume() schema.Quantity {
	return b.asks.total()
}

// Depth returns the level count per side.
func (b *Book) Depth() (bids, asks int) {
	return len(b.bids.prices), len(b.asks.prices)
}

// ValidateIntegrity checks that the book is not crossed. An empty side is
// always consistent.
func (b *Book) ValidateIntegrity() error {
	bid, okBid := b.bids.max()
	ask, okAsk := b.asks.min()
	if okBid && okAsk && bid >= ask {
		return ErrIntegrityViolation
	}
	return nil
}

// Reset empties both sides and clears trade state.
func (b *Book) Reset() {
	b.bids.clear()
	b.asks.clear()
	b.lastUpdateNs = 0
	b.lastTradePrice = 0
	b.lastTradeVolume = 0
	b.lastTradeNs = 0
}

// applyL1 replaces the side's single best level wholesale. Quantity zero
// leaves the side empty.
func (b *Book) applyL1(s *side, price schema.Price, qty schema.Quantity, ts int64) {
	s.clear()
	if qty > 0 {
		s.set(price, qty, ts)
	}
}

// applyL2 dispatches one depth operation. Update and Remove against an
// absent price are tolerated as no-ops so replay gaps do not poison a run.
func (b *Book) applyL2(s *side, op schema.BookOperation, price schema.Price, qty schema.Quantity, ts int64) error {
	switch op {
	case schema.OpAdd:
		if qty < 0 {
			return ErrInvalidQuantity
		}
		s.set(price, qty, ts)
	case schema.OpUpdate:
		if qty < 0 {
			return ErrInvalidQuantity
		}
		if _, ok := s.levels[price]; !ok {
			return nil
		}
		if qty == 0 {
			s.remove(price)
			return nil
		}
		s.set(price, qty, ts)
	case schema.OpRemove:
		s.remove(price)
	}
	return nil
}
