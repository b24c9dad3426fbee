package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const (
	FillPayloadSize   = 48
	EquityPayloadSize = 24
)

// FillSide describes fill direction on the wire.
type FillSide uint16

const (
	FillSideUnknown FillSide = iota
	FillSideBuy
	FillSideSell
)

// Fill is the wire form of a simulated execution.
type Fill struct {
	TradeID     uint64
	TimestampNs int64
	Price       schema.Price
	Quantity    int32
	Side        FillSide
	Flags       uint16
	Commission  schema.Notional
}

// EncodeFill serializes a fill into a fixed-size payload.
func EncodeFill(dst []byte, f Fill) []byte {
	if cap(dst) < FillPayloadSize {
		dst = make([]byte, FillPayloadSize)
	} else {
		dst = dst[:FillPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], f.TradeID)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(f.TimestampNs))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(f.Price))
	binary.LittleEndian.PutUint32(dst[24:28], uint32(f.Quantity))
	binary.LittleEndian.PutUint16(dst[28:30], uint16(f.Side))
	binary.LittleEndian.PutUint16(dst[30:32], f.Flags)
	binary.LittleEndian.PutUint64(dst[32:40], uint64(f.Commission))
	binary.LittleEndian.PutUint64(dst[40:48], 0)

	return dst
}

// DecodeFill parses a fixed-size fill payload.
func DecodeFill(src []byte) (Fill, bool) {
	if len(src) < FillPayloadSize {
		return Fill{}, false
	}
	return Fill{
		TradeID:     binary.LittleEndian.Uint64(src[0:8]),
		TimestampNs: int64(binary.LittleEndian.Uint64(src[8:16])),
		Price:       schema.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		Quantity:    int32(binary.LittleEndian.Uint32(src[24:28])),
		Side:        FillSide(binary.LittleEndian.Uint16(src[28:30])),
		Flags:       binary.LittleEndian.Uint16(src[30:32]),
		Commission:  schema.Notional(int64(binary.LittleEndian.Uint64(src[32:40]))),
	}, true
}

// Equity is the wire form of one equity curve point.
type Equity struct {
	TimestampNs int64
	Value       schema.Notional
}

// EncodeEquity serializes an equity point into a fixed-size payload.
func EncodeEquity(dst []byte, e Equity) []byte {
	if cap(dst) < EquityPayloadSize {
		dst = make([]byte, EquityPayloadSize)
	} else {
		dst = dst[:EquityPayloadSize]
	}
	binary.LittleEndian.PutUint64(dst[0:8], uint64(e.TimestampNs))
	binary.LittleEndian.PutUint64(dst[8:16], uint64(e.Value))
	binary.LittleEndian.PutUint64(dst[16:24], 0)
	return dst
}

// DecodeEquity parses a fixed-size equity payload.
func DecodeEquity(src []byte) (Equity, bool) {
	if len(src) < EquityPayloadSize {
		return Equity{}, false
	}
	return Equity{
		TimestampNs: int64(binary.LittleEndian.Uint64(src[0:8])),
		Value:       schema.Notional(int64(binary.LittleEndian.Uint64(src[8:16]))),
	}, true
}
