package domain

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestShippingFor(t *testing.T) {
	cases := map[int64]int64{
		0:   0,
		1:   12,
		100: 12,
		250: 12,
		251: 0,
		300: 0,
	}
	for subtotal, want := range cases {
		require.Equal(t, want, ShippingFor(subtotal), "subtotal %d", subtotal)
	}
}

func TestShippingFor_Property(t *testing.T) {
	property := func(raw uint32) bool {
		subtotal := int64(raw % 10_000)
		got := ShippingFor(subtotal)
		if subtotal == 0 || subtotal > FreeShippingThreshold {
			return got == 0
		}
		return got == FlatShippingFee
	}
	require.NoError(t, quick.Check(property, nil))
}
