package risk

import "main/internal/schema"

// Config defines simple pre-trade limits for simulated execution.
type Config struct {
	Version    uint16 `json:"version"`
	KillSwitch bool   `json:"killSwitch"`

	// MaxOrderQty caps a single order's contract count. Zero disables.
	MaxOrderQty schema.Quantity `json:"maxOrderQty"`

	// MaxOrderNotional caps price*qty per order. Zero disables.
	MaxOrderNotional schema.Notional `json:"maxOrderNotional"`

	// MaxPosition caps the absolute signed position an order may reach.
	// Zero disables.
	MaxPosition schema.Quantity `json:"maxPosition"`

	// MaxPriceDeviationBps rejects orders priced too far from the
	// reference price. Zero disables.
	MaxPriceDeviationBps int64 `json:"maxPriceDeviationBps"`
}

// Action is the gate verdict.
type Action uint8

const (
	ActionAllow Action = iota
	ActionDeny
)

// Reason explains a deny.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonKillSwitch
	ReasonOrderQty
	ReasonOrderNotional
	ReasonPosition
	ReasonPriceDeviation
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonKillSwitch:
		return "kill switch"
	case ReasonOrderQty:
		return "order qty limit"
	case ReasonOrderNotional:
		return "order notional limit"
	case ReasonPosition:
		return "position limit"
	case ReasonPriceDeviation:
		return "price deviation limit"
	default:
		return "unknown"
	}
}

// Order is the proposed trade presented to the gate. QtyDelta is signed,
// positive for buys.
type Order struct {
	Price    schema.Price
	QtyDelta schema.Quantity
}

// StateView provides the account view the gate evaluates against.
type StateView struct {
	Position       schema.Quantity
	ReferencePrice schema.Price
}

// Decision is the gate result.
type Decision struct {
	Action Action
	Reason Reason
}

// Allowed reports whether the order may proceed.
func (d Decision) Allowed() bool {
	return d.Action == ActionAllow
}

// Engine evaluates orders against static limits. It holds no mutable state
// so one engine may serve many sequential evaluations.
type Engine struct {
	cfg Config
}

// NewEngine creates a risk engine with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate applies the configured checks to an order.
func (e *Engine) Evaluate(order Order, state StateView) Decision {
	if e.cfg.KillSwitch {
		return Decision{Action: ActionDeny, Reason: ReasonKillSwitch}
	}

	qty := order.QtyDelta
	if qty < 0 {
		qty = -qty
	}
	if e.cfg.MaxOrderQty > 0 && qty > e.cfg.MaxOrderQty {
		return Decision{Action: ActionDeny, Reason: ReasonOrderQty}
	}

	if e.cfg.MaxOrderNotional > 0 && order.Price > 0 {
		notional := schema.Notional(int64(order.Price) * int64(qty))
		if notional > e.cfg.MaxOrderNotional {
			return Decision{Action: ActionDeny, Reason: ReasonOrderNotional}
		}
	}

	if e.cfg.MaxPosition > 0 {
		projected := state.Position + order.QtyDelta
		if projected < 0 {
			projected = -projected
		}
		if projected > e.cfg.MaxPosition {
			return Decision{Action: ActionDeny, Reason: ReasonPosition}
		}
	}

	if e.cfg.MaxPriceDeviationBps > 0 && state.ReferencePrice > 0 && order.Price > 0 {
		diff := int64(order.Price) - int64(state.ReferencePrice)
		if diff < 0 {
			diff = -diff
		}
		bps := diff * 10_000 / int64(state.ReferencePrice)
		if bps > e.cfg.MaxPriceDeviationBps {
			return Decision{Action: ActionDeny, Reason: ReasonPriceDeviation}
		}
	}

	return Decision{Action: ActionAllow, Reason: ReasonNone}
}
