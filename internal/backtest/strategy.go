package backtest

import (
	"errors"
	"fmt"
	"strconv"

	"main/internal/book"
	"main/internal/schema"
)

var ErrUnknownParam = errors.New("unknown strategy parameter")

// Side is the direction of a signal.
type Side uint8

const (
	SideBuy Side = iota + 1
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// Signal is a strategy's request for a fill at the given price and size.
type Signal struct {
	Side     Side
	Price    schema.Price
	Quantity schema.Quantity
}

// Strategy reacts to ticks with optional signals. Implementations run on
// the engine goroutine and must not retain the snapshot beyond the call.
type Strategy interface {
	Name() string

	// OnTick returns a signal and true when the strategy wants a fill.
	OnTick(t schema.Tick, snap book.Snapshot) (Signal, bool)

	// OnFill notifies the strategy of an executed trade.
	OnFill(trade TradeRecord)

	// Params exposes the current parameter set.
	Params() map[string]string

	// SetParam updates one parameter, validating the value.
	SetParam(key, value string) error
}

// ImbalanceStrategy is the reference strategy: it leans against top-of-book
// volume imbalance, buying when the bid side dominates and selling when the
// ask side does.
type ImbalanceStrategy struct {
	Threshold float64
	Size      schema.Quantity

	position schema.Quantity
}

// NewImbalanceStrategy uses a 0.6 trigger threshold and single-contract
// clips by default.
func NewImbalanceStrategy() *ImbalanceStrategy {
	return &ImbalanceStrategy{Threshold: 0.6, Size: 1}
}

func (s *ImbalanceStrategy) Name() string {
	return "imbalance"
}

func (s *ImbalanceStrategy) OnTick(t schema.Tick, snap book.Snapshot) (Signal, bool) {
	if !t.Type.IsQuote() {
		return Signal{}, false
	}
	bid, okBid := snap.BestBid()
	ask, okAsk := snap.BestAsk()
	if !okBid || !okAsk {
		return Signal{}, false
	}

	imb := snap.Imbalance()
	switch {
	case imb >= s.Threshold && s.position <= 0:
		return Signal{Side: SideBuy, Price: ask.Price, Quantity: s.Size}, true
	case imb <= -s.Threshold && s.position >= 0:
		return Signal{Side: SideSell, Price: bid.Price, Quantity: s.Size}, true
	}
	return Signal{}, false
}

func (s *ImbalanceStrategy) OnFill(trade TradeRecord) {
	if trade.Side == SideBuy {
		s.position += trade.Quantity
	} else {
		s.position -= trade.Quantity
	}
}

func (s *ImbalanceStrategy) Params() map[string]string {
	return map[string]string{
		"threshold": strconv.FormatFloat(s.Threshold, 'f', -1, 64),
		"size":      strconv.FormatInt(int64(s.Size), 10),
	}
}

func (s *ImbalanceStrategy) SetParam(key, value string) error {
	switch key {
	case "threshold":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v <= 0 || v > 1 {
			return fmt.Errorf("threshold %q must be in (0, 1]", value)
		}
		s.Threshold = v
	case "size":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("size %q must be a positive integer", value)
		}
		s.Size = schema.Quantity(v)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, key)
	}
	return nil
}
