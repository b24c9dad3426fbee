package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const TickPayloadSize = 32

// EncodeTick serializes a tick into a fixed-size payload.
func EncodeTick(dst []byte, t schema.Tick) []byte {
	if cap(dst) < TickPayloadSize {
		dst = make([]byte, TickPayloadSize)
	} else {
		dst = dst[:TickPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], uint64(t.TimestampNs))
	binary.LittleEndian.PutUint64(dst[8:16], uint64(t.Price))
	binary.LittleEndian.PutUint32(dst[16:20], uint32(t.Volume))
	copy(dst[20:24], t.ContractMonth[:])
	dst[24] = byte(t.Level)
	dst[25] = byte(t.Type)
	dst[26] = byte(t.Operation)
	dst[27] = t.Depth
	binary.LittleEndian.PutUint32(dst[28:32], 0)

	return dst
}

// DecodeTick parses a fixed-size tick payload.
func DecodeTick(src []byte) (schema.Tick, bool) {
	if len(src) < TickPayloadSize {
		return schema.Tick{}, false
	}
	t := schema.Tick{
		TimestampNs: int64(binary.LittleEndian.Uint64(src[0:8])),
		Price:       schema.Price(int64(binary.LittleEndian.Uint64(src[8:16]))),
		Volume:      int32(binary.LittleEndian.Uint32(src[16:20])),
		Level:       schema.DataLevel(src[24]),
		Type:        schema.MarketDataType(src[25]),
		Operation:   schema.BookOperation(src[26]),
		Depth:       src[27],
	}
	copy(t.ContractMonth[:], src[20:24])
	return t, true
}
