package validate

import "main/internal/schema"

// ProcessedTick pairs a validated tick with deltas derived from its
// predecessor. Deltas use integer arithmetic on the scaled price so
// enrichment stays exact.
type ProcessedTick struct {
	Tick schema.Tick

	// TimeDeltaNs is the nanosecond distance to the previous tick.
	// Negative when the feed regressed.
	TimeDeltaNs int64

	// PriceDeltaBps is the signed basis-point move against the previous
	// price, truncated toward zero. Zero when either price is non-positive.
	PriceDeltaBps int64
}

// Enrich derives per-tick deltas. prev may be nil for the first tick of a
// feed, in which case both deltas are zero.
func Enrich(prev *schema.Tick, curr schema.Tick) ProcessedTick {
	p := ProcessedTick{Tick: curr}
	if prev == nil {
		return p
	}
	p.TimeDeltaNs = curr.TimestampNs - prev.TimestampNs
	if prev.Price > 0 && curr.Price > 0 {
		p.PriceDeltaBps = (int64(curr.Price) - int64(prev.Price)) * 10_000 / int64(prev.Price)
	}
	return p
}

// EnrichBatch enriches an ordered batch. Outcomes from validation gate which
// ticks are included: when outcomes is non-nil, invalid ticks are skipped and
// the previous valid tick remains the delta baseline.
func EnrichBatch(ticks []schema.Tick, outcomes []Outcome) []ProcessedTick {
	processed := make([]ProcessedTick, 0, len(ticks))
	var prev *schema.Tick
	for i := range ticks {
		if outcomes != nil && !outcomes[i].Valid {
			continue
		}
		processed = append(processed, Enrich(prev, ticks[i]))
		prev = &ticks[i]
	}
	return processed
}
