package schema

import "strconv"

// Scale is the number of decimal places used by a scaled integer.
// Example: Scale=2 means the integer value is scaled by 1e2.
type Scale int32

// Price is a scaled integer. The scale is defined per instrument.
type Price int64

func (p Price) AppendString(priceScale Scale, buf []byte) []byte {
	return appendScaledInt(buf, int64(p), int(priceScale))
}

// Quantity is a scaled integer contract count.
type Quantity int64

// Notional is a scaled integer monetary amount (price scale × quantity).
type Notional int64

func (n Notional) AppendString(notionalScale Scale, buf []byte) []byte {
	return appendScaledInt(buf, int64(n), int(notionalScale))
}

func appendScaledInt(buf []byte, value int64, scale int) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

	neg := value < 0
	u := uint64(value)
	if neg {
		u = uint64(^value) + 1
	}

	var tmp [32]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}

	if len(digits) <= scale {
		buf = append(buf, '0', '.')
		for i := 0; i < scale-len(digits); i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
		return buf
	}

	idx := len(digits) - scale
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	buf = append(buf, digits[idx:]...)
	return buf
}
