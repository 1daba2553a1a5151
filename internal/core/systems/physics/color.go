package physics

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// RGB32 is a three channel 8-bit colour carried by every body.
type RGB32 struct {
	R, G, B uint8
}

// NewRGB32 builds a colour from real channel values, clamping each to [0,255]
// and rounding to the nearest integer.
func NewRGB32(r, g, b float64) RGB32 {
	return RGB32{R: channel(r), G: channel(g), B: channel(b)}
}

func channel(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}

// ParseHex parses "#rrggbb".
func ParseHex(s string) (RGB32, error) {
	if len(s) != 7 || s[0] != '#' {
		return RGB32{}, errors.Wrapf(ErrInvalidParameter, "color %q: want #rrggbb", s)
	}
	rgb, err := hex.DecodeString(s[1:])
	if err != nil {
		return RGB32{}, errors.Wrapf(ErrInvalidParameter, "color %q: %v", s, err)
	}
	return RGB32{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
}

// Hex formats the colour as "#rrggbb".
func (c RGB32) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// RGBA adapts the colour for image/color based renderers.
func (c RGB32) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff} }
