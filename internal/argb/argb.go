// Package argb holds the premultiplied 32-bit colour values used for the
// box foreground, background and border.
package argb

import (
	"fmt"
	"math"
)

// Color is a premultiplied colour packed as 0xAARRGGBB.
type Color uint32

// Common values.
const (
	Transparent Color = 0x00000000
	White       Color = 0xFFFFFFFF
	Black       Color = 0xFF000000
)

// New packs channels that are already premultiplied.
func New(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Premultiply packs straight (non-premultiplied) channels, scaling each of
// r, g and b by a/255.
func Premultiply(a, r, g, b uint8) Color {
	return New(a, scale(r, a), scale(g, a), scale(b, a))
}

func scale(c, a uint8) uint8 {
	return uint8(uint32(c) * uint32(a) / 255)
}

// Parse reads a hexadecimal AARRGGBB string and premultiplies it.
//
// Parsing is lenient in the way strtoul(3) is: leading blanks, an optional
// sign and an optional 0x prefix are accepted, digits are consumed up to
// the first non-hex character and whatever was read so far is the value.
// Input with no digits yields 0.
func Parse(s string) Color {
	v := uint32(parseHex(s))
	return Premultiply(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v))
}

func parseHex(s string) uint64 {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}

	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	if i+2 < len(s) && s[i] == '0' && (s[i+1] == 'x' || s[i+1] == 'X') && hexDigit(s[i+2]) >= 0 {
		i += 2
	}

	var v uint64
	overflow := false
	for ; i < len(s); i++ {
		d := hexDigit(s[i])
		if d < 0 {
			break
		}
		if v > (math.MaxUint64-uint64(d))/16 {
			overflow = true
			continue
		}
		v = v*16 + uint64(d)
	}

	if overflow {
		return math.MaxUint64
	}
	if neg {
		return -v
	}
	return v
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// Pixel returns the value X expects for a pixel of the given visual depth.
// A 32-bit ARGB visual takes the packed value as is; shallower TrueColor
// visuals have no alpha channel.
func (c Color) Pixel(depth uint8) uint32 {
	if depth == 32 {
		return uint32(c)
	}
	return uint32(c) & 0x00FFFFFF
}

// RGBA implements image/color.Color. The stored channels are already
// premultiplied, so they are only widened to 16 bits.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R())
	r |= r << 8
	g = uint32(c.G())
	g |= g << 8
	b = uint32(c.B())
	b |= b << 8
	a = uint32(c.A())
	a |= a << 8
	return r, g, b, a
}

func (c Color) String() string {
	return fmt.Sprintf("%08X", uint32(c))
}
