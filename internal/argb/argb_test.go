package argb

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePremultiplies(t *testing.T) {
	c := Parse("88FFFFFF")
	assert.Equal(t, Color(0x88888888), c)
	assert.Equal(t, "88888888", c.String())
}

func TestParseChannelFormula(t *testing.T) {
	for _, a := range []uint8{0, 1, 0x40, 0x7F, 0x80, 0xC3, 0xFE, 0xFF} {
		for _, ch := range []uint8{0, 1, 0x10, 0x80, 0xAB, 0xFF} {
			in := New(a, ch, 0xFF-ch, ch/2)
			got := Parse(in.String())
			want := func(v uint8) uint8 { return uint8(int(v) * int(a) / 255) }

			require.Equal(t, a, got.A(), "alpha of %s", in)
			require.Equal(t, want(ch), got.R(), "red of %s", in)
			require.Equal(t, want(0xFF-ch), got.G(), "green of %s", in)
			require.Equal(t, want(ch/2), got.B(), "blue of %s", in)
		}
	}
}

func TestParseOpaqueAndTransparent(t *testing.T) {
	assert.Equal(t, Color(0xFF00FF00), Parse("FF00FF00"))
	assert.Equal(t, Transparent, Parse("00FFFFFF"))
	assert.Equal(t, Color(0x80800000), Parse("0x80FF0000"))
	assert.Equal(t, Color(0xFFABCDEF), Parse("ffabcdef"))
}

func TestParseLenient(t *testing.T) {
	assert.Equal(t, Transparent, Parse(""))
	assert.Equal(t, Transparent, Parse("zz"))
	// digits stop at the first non-hex character
	assert.Equal(t, Parse("FF"), Parse("FFzz1234"))
	assert.Equal(t, Parse("FF102030"), Parse("  FF102030"))
	// overflow saturates like strtoul and then truncates to 32 bits
	assert.Equal(t, White, Parse("1FFFFFFFFFFFFFFFFFFFF"))
	// a value wider than 32 bits keeps its low word
	assert.Equal(t, Color(0xFF010203), Parse("AAFF010203"))
}

func TestPixel(t *testing.T) {
	c := Parse("80FF0000")
	assert.Equal(t, uint32(0x80800000), c.Pixel(32))
	assert.Equal(t, uint32(0x00800000), c.Pixel(24))
}

func TestRGBAIsPremultiplied(t *testing.T) {
	c := Parse("80FF0000")
	got := color.RGBAModel.Convert(c).(color.RGBA)
	assert.Equal(t, color.RGBA{R: 0x80, G: 0, B: 0, A: 0x80}, got)
}
