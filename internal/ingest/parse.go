package ingest

import (
	"strconv"
	"strings"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// ParsePrice parses a decimal string into an integer scaled by 10^scale
// without touching float64, so "4500.25" at scale 2 is exactly 450025.
// Excess fractional digits truncate toward zero.
func ParsePrice(s string, scale schema.Scale) (schema.Price, error) {
	v, err := parseFixedPoint(s, int(scale))
	return schema.Price(v), err
}

func parseFixedPoint(s string, decimals int) (int64, error) {
	if s == "" {
		return 0, nil
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, errors.Errorf("invalid decimal %q: multiple dots", s)
	}

	integerPart := parts[0]
	fractionalPart := ""
	if len(parts) == 2 {
		fractionalPart = parts[1]
	}

	sign := int64(1)
	if strings.HasPrefix(integerPart, "-") {
		sign = -1
		integerPart = integerPart[1:]
	}

	var intVal int64
	if integerPart != "" {
		v, err := strconv.ParseInt(integerPart, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "integer part of %q", s)
		}
		intVal = v
	}

	if len(fractionalPart) > decimals {
		fractionalPart = fractionalPart[:decimals]
	} else {
		fractionalPart += strings.Repeat("0", decimals-len(fractionalPart))
	}

	var fracVal int64
	if fractionalPart != "" {
		v, err := strconv.ParseInt(fractionalPart, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "fractional part of %q", s)
		}
		fracVal = v
	}

	multiplier := int64(1)
	for i := 0; i < decimals; i++ {
		multiplier *= 10
	}
	return sign * (intVal*multiplier + fracVal), nil
}
