package schema

import "unsafe"

// DataLevel distinguishes top-of-book feeds from full-depth feeds.
type DataLevel uint8

const (
	LevelUnknown DataLevel = iota
	LevelL1
	LevelL2
)

// MarketDataType describes the meaning of a tick.
type MarketDataType uint8

const (
	MDTUnknown MarketDataType = iota
	MDTTrade
	MDTBidQuote
	MDTAskQuote
	MDTImpliedBid
	MDTImpliedAsk
	MDTSettlement
	MDTSessionHigh
	MDTSessionLow
	MDTOpenInterest
	MDTVolume
)

// IsQuote reports whether the type mutates book levels.
func (t MarketDataType) IsQuote() bool {
	switch t {
	case MDTBidQuote, MDTAskQuote, MDTImpliedBid, MDTImpliedAsk:
		return true
	default:
		return false
	}
}

// IsBid reports whether the type targets the bid side.
func (t MarketDataType) IsBid() bool {
	return t == MDTBidQuote || t == MDTImpliedBid
}

// IsInformational reports whether the type carries session statistics
// rather than tradable prices. Informational ticks permit price=0.
func (t MarketDataType) IsInformational() bool {
	switch t {
	case MDTSettlement, MDTOpenInterest, MDTVolume:
		return true
	default:
		return false
	}
}

func (t MarketDataType) String() string {
	switch t {
	case MDTTrade:
		return "Trade"
	case MDTBidQuote:
		return "BidQuote"
	case MDTAskQuote:
		return "AskQuote"
	case MDTImpliedBid:
		return "ImpliedBid"
	case MDTImpliedAsk:
		return "ImpliedAsk"
	case MDTSettlement:
		return "Settlement"
	case MDTSessionHigh:
		return "SessionHigh"
	case MDTSessionLow:
		return "SessionLow"
	case MDTOpenInterest:
		return "OpenInterest"
	case MDTVolume:
		return "Volume"
	default:
		return "Unknown"
	}
}

// BookOperation is the depth mutation carried by an L2 tick.
type BookOperation uint8

const (
	OpNone BookOperation = iota
	OpAdd
	OpUpdate
	OpRemove
)

func (op BookOperation) String() string {
	switch op {
	case OpAdd:
		return "Add"
	case OpUpdate:
		return "Update"
	case OpRemove:
		return "Remove"
	default:
		return "None"
	}
}

// Tick is a single market data event. It is a fixed-size value type so a
// batch of N ticks occupies exactly N*MemorySize() bytes with no per-tick
// heap allocation; it is constructed once at decode time and never mutated.
type Tick struct {
	TimestampNs   int64
	Price         Price
	Volume        int32
	ContractMonth [4]byte
	Level         DataLevel
	Type          MarketDataType
	Operation     BookOperation
	Depth         uint8
}

// NewTick builds an L1 tick. L1 ticks never carry Operation/Depth.
func NewTick(level DataLevel, mdt MarketDataType, timestampNs int64, price Price, volume int32, contractMonth string) Tick {
	t := Tick{
		TimestampNs: timestampNs,
		Price:       price,
		Volume:      volume,
		Level:       level,
		Type:        mdt,
	}
	copy(t.ContractMonth[:], contractMonth)
	return t
}

// WithL2 derives an L2 tick carrying a book operation at a 1-based depth.
func (t Tick) WithL2(op BookOperation, depth uint8) Tick {
	t.Level = LevelL2
	t.Operation = op
	t.Depth = depth
	return t
}

// Contract returns the contract month code as a string.
func (t Tick) Contract() string {
	n := 0
	for n < len(t.ContractMonth) && t.ContractMonth[n] != 0 {
		n++
	}
	return string(t.ContractMonth[:n])
}

// MemorySize returns the static per-tick footprint in bytes.
func (t Tick) MemorySize() int {
	return int(unsafe.Sizeof(t))
}
