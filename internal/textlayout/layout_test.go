package textlayout

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"
)

func newLayout(font string) *Layout {
	l := New(NewFontSet(96, nil))
	l.SetFont(font)
	return l
}

func canvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}

func inked(img *image.RGBA) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) != (color.RGBA{A: 0xFF}) {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func TestEmptyLayoutHasOneLine(t *testing.T) {
	l := newLayout("Sans 20")
	w, h := l.PixelSize()
	assert.Equal(t, 0, w)
	assert.Greater(t, h, 0)
	assert.Equal(t, 1, l.LineCount())
}

func TestPixelSizeGrowsWithText(t *testing.T) {
	l := newLayout("Sans 20")
	l.SetText("Hi")
	w1, h1 := l.PixelSize()
	l.SetText("Hello, world")
	w2, h2 := l.PixelSize()

	assert.Greater(t, w2, w1)
	assert.Equal(t, h1, h2)
}

func TestNewlinesStartLines(t *testing.T) {
	l := newLayout("Sans 12")
	l.SetText("one")
	_, single := l.PixelSize()

	l.SetText("one\ntwo\nthree")
	assert.Equal(t, 3, l.LineCount())
	_, triple := l.PixelSize()
	assert.InDelta(t, 3*single, triple, 2)
}

func TestWrapAtWidth(t *testing.T) {
	l := newLayout("Sans 12")
	l.SetText("the quick brown fox jumps over the lazy dog")
	natural, _ := l.PixelSize()
	require.Equal(t, 1, l.LineCount())

	l.SetWidth(natural / 3)
	assert.Greater(t, l.LineCount(), 2)
	w, _ := l.PixelSize()
	assert.LessOrEqual(t, w, natural/3+1)
}

func TestLongWordOverflows(t *testing.T) {
	l := newLayout("Sans 12")
	l.SetText("supercalifragilistic")
	natural, _ := l.PixelSize()

	l.SetWidth(10)
	assert.Equal(t, 1, l.LineCount())
	w, _ := l.PixelSize()
	assert.Equal(t, natural, w)
}

func TestAlignment(t *testing.T) {
	l := newLayout("Sans 12")
	l.SetText("Hello")
	tw, _ := l.PixelSize()

	l.SetWidth(200)
	l.SetAlignment(AlignLeft)
	assert.Equal(t, 0, l.PixelExtents().Min.X)

	l.SetAlignment(AlignCenter)
	assert.InDelta(t, (200-tw)/2, l.PixelExtents().Min.X, 1)

	l.SetAlignment(AlignRight)
	assert.InDelta(t, 200, l.PixelExtents().Max.X, 1)

	l.ResetConstraints()
	assert.Equal(t, -1, l.Width())
	assert.Equal(t, 0, l.PixelExtents().Min.X)
}

func TestDrawStaysInsideExtents(t *testing.T) {
	l := newLayout("Sans 20")
	l.SetText("Hello")
	ext := l.PixelExtents()

	img := canvas(200, 60)
	origin := fixed.P(10, 5)
	l.Draw(img, origin, color.White)

	ink := inked(img)
	require.False(t, ink.Empty())
	assert.True(t, ink.In(ext.Add(image.Pt(10, 5)).Inset(-1)), "ink %v outside %v", ink, ext)
}

func TestDrawIsRepeatable(t *testing.T) {
	l := newLayout("Sans 14")
	l.SetText("same")

	a, b := canvas(100, 30), canvas(100, 30)
	l.Draw(a, fixed.P(0, 0), color.White)
	l.Draw(b, fixed.P(0, 0), color.White)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestMarkupRuns(t *testing.T) {
	runs, err := parseMarkup(`plain <b>bold <i>both</i></b> &amp; <span foreground="#FF0000" size="x-large">red</span>`)
	require.NoError(t, err)

	var texts []string
	for _, r := range runs {
		texts = append(texts, r.text)
	}
	assert.Equal(t, []string{"plain ", "bold ", "both", " & ", "red"}, texts)

	assert.Equal(t, WeightBold, runs[2].attrs.font.weight)
	assert.Equal(t, StyleItalic, runs[2].attrs.font.style)
	assert.NotNil(t, runs[4].attrs.fg)
	assert.InDelta(t, 1.44, runs[4].attrs.font.scale, 0.001)
}

func TestMarkupErrors(t *testing.T) {
	for _, in := range []string{
		"<b>unclosed",
		"a < b",
		"<blink>x</blink>",
		`<span colour="red">x</span>`,
		`<span foreground="nope">x</span>`,
		`<b weight="bold">x</b>`,
	} {
		_, err := parseMarkup(in)
		assert.Error(t, err, in)
	}
}

func TestSetMarkupFallsBackToText(t *testing.T) {
	l := newLayout("Sans 12")
	err := l.SetMarkup("1 < 2")
	assert.Error(t, err)
	assert.Equal(t, "1 < 2", l.Text())

	require.NoError(t, l.SetMarkup("<u>under</u>line"))
	assert.Equal(t, "underline", l.Text())
}

func TestMarkupColorIsDrawn(t *testing.T) {
	l := newLayout("Sans Bold 24")
	require.NoError(t, l.SetMarkup(`<span foreground="#FF0000">M</span>`))

	img := canvas(60, 60)
	l.Draw(img, fixed.P(5, 5), color.White)

	var red bool
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 0xFF && img.Pix[i+1] == 0 && img.Pix[i+2] == 0 {
			red = true
			break
		}
	}
	assert.True(t, red, "expected fully red glyph pixels")
}

func TestMarkupColorFormats(t *testing.T) {
	c, err := parseMarkupColor("#0F0")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 0xFF, A: 0xFF}, color.RGBAModel.Convert(c))

	c, err = parseMarkupColor("#FF000080")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x80, A: 0x80}, color.RGBAModel.Convert(c))

	_, err = parseMarkupColor("#12345")
	assert.Error(t, err)
}

func TestMarkupSizes(t *testing.T) {
	base := ParseFontDescription("Sans 10")

	runs, err := parseMarkup(`<span size="16384">a</span><span size="8pt">b</span><big><small>c</small></big>`)
	require.NoError(t, err)
	assert.Equal(t, 16.0, runs[0].attrs.font.apply(base).Size)
	assert.Equal(t, 8.0, runs[1].attrs.font.apply(base).Size)
	assert.InDelta(t, 10.0, runs[2].attrs.font.apply(base).Size, 0.0001)
}
