package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRGB32(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		want    RGB32
	}{
		{name: "exact", r: 1, g: 2, b: 3, want: RGB32{1, 2, 3}},
		{name: "round half up", r: 127.5, g: 0.4, b: 254.6, want: RGB32{128, 0, 255}},
		{name: "clamp", r: -20, g: 300, b: math.Inf(1), want: RGB32{0, 255, 255}},
		{name: "NaN", r: math.NaN(), g: 10, b: 10, want: RGB32{0, 10, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRGB32(tt.r, tt.g, tt.b))
		})
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, RGB32{255, 128, 0}, c)
	assert.Equal(t, "#ff8000", c.Hex())

	c, err = ParseHex("#0A0b0C")
	require.NoError(t, err)
	assert.Equal(t, RGB32{10, 11, 12}, c)

	for _, bad := range []string{"", "ff8000", "#ff80", "#gg0000", "# 1 2 3", "#+1+2+3", "#ff 000"} {
		_, err = ParseHex(bad)
		assert.ErrorIs(t, err, ErrInvalidParameter, bad)
	}
}

func TestVec2(t *testing.T) {
	a, b := V2(3, 4), V2(1, -1)
	assert.Equal(t, V2(4, 3), a.Add(b))
	assert.Equal(t, V2(2, 5), a.Sub(b))
	assert.Equal(t, V2(6, 8), a.Mul(2))
	assert.Equal(t, V2(1.5, 2), a.Div(2))
	assert.Equal(t, 5.0, a.Len())
	assert.Equal(t, 25.0, a.LenSq())
	assert.InDelta(t, math.Hypot(2, 5), a.Dist(b), 1e-12)
	assert.False(t, V2(1, 0).Div(0).IsFinite())
}
