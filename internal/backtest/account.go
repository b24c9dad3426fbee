package backtest

import "main/internal/schema"

// Account tracks capital and the open position with futures margin
// accounting: fills never exchange notional cash, only realized PnL and
// commissions move capital. All arithmetic is scaled integer.
type Account struct {
	// Capital is realized capital, commissions included.
	Capital schema.Notional

	// Position is the signed open contract count, positive long.
	Position schema.Quantity

	// EntryNotional is the signed cost basis of the open position,
	// sum of qty*price over the entries still open.
	EntryNotional schema.Notional
}

// NewAccount starts an account flat with the given capital.
func NewAccount(capital schema.Notional) Account {
	return Account{Capital: capital}
}

// ApplyFill books a signed fill. The realized portion of PnL moves into
// Capital; the basis of any remaining position keeps integer remainders so
// no value leaks across partial closes.
func (a *Account) ApplyFill(qtyDelta schema.Quantity, price schema.Price, commission schema.Notional) schema.Notional {
	var realized schema.Notional

	if a.Position != 0 && (a.Position > 0) != (qtyDelta > 0) && qtyDelta != 0 {
		abs := a.Position
		if abs < 0 {
			abs = -abs
		}
		closing := qtyDelta
		if closing < 0 {
			closing = -closing
		}
		if closing > abs {
			closing = abs
		}

		// Signed closing quantity opposes the position.
		closedDelta := -closing
		if a.Position < 0 {
			closedDelta = closing
		}
		removedBasis := schema.Notional(int64(a.EntryNotional) * int64(closing) / int64(abs))

		realized = schema.Notional(-int64(closedDelta)*int64(price)) - removedBasis

		a.Position += closedDelta
		a.EntryNotional -= removedBasis
		qtyDelta -= closedDelta
		if a.Position == 0 {
			a.EntryNotional = 0
		}
	}

	if qtyDelta != 0 {
		a.Position += qtyDelta
		a.EntryNotional += schema.Notional(int64(qtyDelta) * int64(price))
	}

	a.Capital += realized - commission
	return realized - commission
}

// Equity marks the open position at the given price.
func (a Account) Equity(mark schema.Price) schema.Notional {
	if a.Position == 0 {
		return a.Capital
	}
	return a.Capital + schema.Notional(int64(a.Position)*int64(mark)) - a.EntryNotional
}

// Flat reports whether no position is open.
func (a Account) Flat() bool {
	return a.Position == 0
}
