package ingest

import (
	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// ErrCorruptSource marks a source that cannot be decoded. Decode failures
// are fatal to the feed, never silently skipped.
var ErrCorruptSource = errors.New("corrupt tick source")

var mdtByName = map[string]schema.MarketDataType{
	"trade":         schema.MDTTrade,
	"bid":           schema.MDTBidQuote,
	"ask":           schema.MDTAskQuote,
	"implied_bid":   schema.MDTImpliedBid,
	"implied_ask":   schema.MDTImpliedAsk,
	"settlement":    schema.MDTSettlement,
	"session_high":  schema.MDTSessionHigh,
	"session_low":   schema.MDTSessionLow,
	"open_interest": schema.MDTOpenInterest,
	"volume":        schema.MDTVolume,
}

func parseMarketDataType(s string) (schema.MarketDataType, error) {
	if mdt, ok := mdtByName[s]; ok {
		return mdt, nil
	}
	return schema.MDTUnknown, errors.Errorf("unknown market data type %q", s)
}

func parseLevel(s string) (schema.DataLevel, error) {
	switch s {
	case "L1", "l1":
		return schema.LevelL1, nil
	case "L2", "l2":
		return schema.LevelL2, nil
	default:
		return schema.LevelUnknown, errors.Errorf("unknown data level %q", s)
	}
}

func parseOperation(s string) (schema.BookOperation, error) {
	switch s {
	case "", "none":
		return schema.OpNone, nil
	case "add":
		return schema.OpAdd, nil
	case "update":
		return schema.OpUpdate, nil
	case "remove":
		return schema.OpRemove, nil
	default:
		return schema.OpNone, errors.Errorf("unknown book operation %q", s)
	}
}
