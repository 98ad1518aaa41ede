package erf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeG707(t *testing.T) {
	t.Parallel()

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		for _, tc := range []struct{ size, rate uint8 }{
			{0, 0}, {0, 3}, {6, 2}, {255, 1}, {1, 6}, {3, 200},
		} {
			g := DecodeG707(0xff, tc.size, tc.rate)
			assert.True(t, g.Malformed)
			assert.Equal(t, "Malformed", g.String())
			assert.Equal(t, [maxAUGIndex]int8{}, g.Index)
			assert.Zero(t, g.VCSize)
			assert.Zero(t, g.LineRate)
		}
	})

	t.Run("well formed", func(t *testing.T) {
		t.Parallel()
		for size := uint8(1); size <= 5; size++ {
			for rate := uint8(0); rate <= 5; rate++ {
				g := DecodeG707(0x1b, size, rate)
				assert.False(t, g.Malformed)
				assert.NotEqual(t, "Malformed", g.String())
			}
		}
	})

	t.Run("formatting", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			vcID, size, rate uint8
			want             string
		}{
			// STM-1 carrying three VC3s, second one
			{0x01, 1, 2, "VC3(2)"},
			// STM-4, VC3 in AUG-1 #4, AU-3 #3
			{0x0e, 1, 3, "VC3(4, 3)"},
			// STM-4, VC4 in AUG-1 #2; the AU-3 level is unused
			{0x04, 2, 3, "VC4(2, 0)"},
			// STM-16 VC4-4c in AUG-4 #3
			{0x20, 3, 4, "VC4-4c(3, 0, 0)"},
			// no line rate and no indices
			{0x00, 3, 0, "VC4-4c(0, 0)"},
			{0x00, 1, 0, "VC3()"},
			{0x00, 2, 1, "VC4(0)"},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.want, DecodeG707(tc.vcID, tc.size, tc.rate).String())
		}
	})

	t.Run("unused levels", func(t *testing.T) {
		t.Parallel()
		g := DecodeG707(0xff, 2, 3)
		assert.Equal(t, [maxAUGIndex]int8{0, 4, -1, -1}, g.Index)
	})
}

func TestEntropy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, float32(0), Entropy(0))
	assert.Equal(t, float32(8), Entropy(255))
	assert.Equal(t, "0.00 (not calculated)", formatEntropy(0))
	assert.Equal(t, "8.00 bits", formatEntropy(255))

	prev := Entropy(0)
	for v := 1; v <= 255; v++ {
		e := Entropy(uint8(v))
		assert.GreaterOrEqual(t, e, prev)
		prev = e
	}
}
