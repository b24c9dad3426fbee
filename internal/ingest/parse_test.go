package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestParsePriceExact(t *testing.T) {
	cases := []struct {
		in    string
		scale schema.Scale
		want  schema.Price
	}{
		{"4500.25", 2, 450_025},
		{"4500", 2, 450_000},
		{"4500.2", 2, 450_020},
		{"0.25", 2, 25},
		{".5", 2, 50},
		{"-4500.25", 2, -450_025},
		{"", 2, 0},
		{"4500.257", 2, 450_025}, // excess precision truncates
		{"1.230000", 6, 1_230_000},
		{"0", 0, 0},
		{"42", 0, 42},
	}
	for _, c := range cases {
		got, err := ParsePrice(c.in, c.scale)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParsePriceRejectsGarbage(t *testing.T) {
	for _, in := range []string{"1.2.3", "abc", "12a.5", "4500.x"} {
		_, err := ParsePrice(in, 2)
		assert.Error(t, err, in)
	}
}
