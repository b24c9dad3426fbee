package book

import (
	"fmt"

	"main/internal/schema"
)

// Stats accumulates reconstruction counters for one run. Spread extrema are
// tracked in scaled price units.
type Stats struct {
	TotalUpdates  int64
	Trades        int64
	QuoteUpdates  int64
	Informational int64

	// L2 operation counts.
	Adds    int64
	Updates int64
	Removes int64

	// CrossedEvents counts quote updates that left bid >= ask.
	CrossedEvents int64

	// MaxDepth is the deepest level count seen on either side.
	MaxDepth int

	MaxSpread schema.Price
	MinSpread schema.Price
	hasSpread bool
}

// Reconstructor applies validated ticks to a book, strictly in the order
// they are fed. It never reorders; when a caller feeds ticks out of
// timestamp order the book's last update time reflects feed order.
type Reconstructor struct {
	book  *Book
	stats Stats
}

// NewReconstructor wraps an existing book.
func NewReconstructor(b *Book) *Reconstructor {
	return &Reconstructor{book: b}
}

// Book returns the underlying book.
func (r *Reconstructor) Book() *Book {
	return r.book
}

// Stats returns a copy of the run counters.
func (r *Reconstructor) Stats() Stats {
	return r.stats
}

// Process applies one tick to the book.
func (r *Reconstructor) Process(t schema.Tick) error {
	b := r.book

	switch {
	case t.Type == schema.MDTTrade:
		b.lastTradePrice = t.Price
		b.lastTradeVolume = t.Volume
		b.lastTradeNs = t.TimestampNs
		r.stats.Trades++

	case t.Type.IsQuote():
		s := &b.asks
		if t.Type.IsBid() {
			s = &b.bids
		}
		qty := schema.Quantity(t.Volume)
		switch t.Level {
		case schema.LevelL1:
			b.applyL1(s, t.Price, qty, t.TimestampNs)
		case schema.LevelL2:
			if err := b.applyL2(s, t.Operation, t.Price, qty, t.TimestampNs); err != nil {
				return fmt.Errorf("%s %s at %d: %w", t.Type, t.Operation, t.Price, err)
			}
			switch t.Operation {
			case schema.OpAdd:
				r.stats.Adds++
			case schema.OpUpdate:
				r.stats.Updates++
			case schema.OpRemove:
				r.stats.Removes++
			}
		default:
			return fmt.Errorf("quote tick with data level %d", t.Level)
		}
		r.stats.QuoteUpdates++
		r.observeBook()

	case t.Type.IsInformational(),
		t.Type == schema.MDTSessionHigh,
		t.Type == schema.MDTSessionLow:
		r.stats.Informational++

	default:
		return fmt.Errorf("unhandled market data type %s", t.Type)
	}

	b.lastUpdateNs = t.TimestampNs
	r.stats.TotalUpdates++
	return nil
}

func (r *Reconstructor) observeBook() {
	if d := len(r.book.bids.prices); d > r.stats.MaxDepth {
		r.stats.MaxDepth = d
	}
	if d := len(r.book.asks.prices); d > r.stats.MaxDepth {
		r.stats.MaxDepth = d
	}
	spread, ok := r.book.Spread()
	if !ok {
		return
	}
	if spread <= 0 {
		r.stats.CrossedEvents++
	}
	if !r.stats.hasSpread {
		r.stats.MaxSpread = spread
		r.stats.MinSpread = spread
		r.stats.hasSpread = true
		return
	}
	if spread > r.stats.MaxSpread {
		r.stats.MaxSpread = spread
	}
	if spread < r.stats.MinSpread {
		r.stats.MinSpread = spread
	}
}
