// Package textlayout shapes a string, optionally styled with Pango-like
// markup, into measured lines and paints them onto an image.
package textlayout

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Layout is the text-layout object: text plus the font and constraints it
// is shaped with. Measurements are recomputed lazily after any change.
type Layout struct {
	fonts *FontSet
	desc  FontDescription
	runs  []run
	width int
	align Align

	lines  []line
	extent fixed.Rectangle26_6
	dirty  bool
}

type piece struct {
	text  string
	style *runStyle
	space bool
	width fixed.Int26_6
}

type runStyle struct {
	face      font.Face
	fg, bg    color.Color
	underline bool
	strike    bool
	rise      fixed.Int26_6
}

type line struct {
	pieces  []piece
	width   fixed.Int26_6
	top     fixed.Int26_6
	ascent  fixed.Int26_6
	descent fixed.Int26_6
	height  fixed.Int26_6
	offset  fixed.Int26_6
}

func New(fonts *FontSet) *Layout {
	return &Layout{
		fonts: fonts,
		desc:  ParseFontDescription(""),
		width: -1,
		align: AlignLeft,
		dirty: true,
	}
}

func (l *Layout) SetFontDescription(d FontDescription) {
	l.desc = d
	l.dirty = true
}

// SetFont is SetFontDescription(ParseFontDescription(s)).
func (l *Layout) SetFont(s string) {
	l.SetFontDescription(ParseFontDescription(s))
}

func (l *Layout) SetText(text string) {
	l.runs = []run{{text: text}}
	l.dirty = true
}

// SetMarkup sets styled text. When markup cannot be parsed the layout shows
// it verbatim and the parse error is returned.
func (l *Layout) SetMarkup(markup string) error {
	runs, err := parseMarkup(markup)
	if err != nil {
		l.SetText(markup)
		return err
	}
	l.runs = runs
	l.dirty = true
	return nil
}

// Text returns the text content without markup.
func (l *Layout) Text() string {
	var b strings.Builder
	for _, r := range l.runs {
		b.WriteString(r.text)
	}
	return b.String()
}

// SetWidth wraps lines at px pixels; a negative width lays every paragraph
// out on a single line.
func (l *Layout) SetWidth(px int) {
	l.width = px
	l.dirty = true
}

func (l *Layout) Width() int { return l.width }

// SetAlignment positions lines within the layout width, or within the
// widest line when no width is set.
func (l *Layout) SetAlignment(a Align) {
	l.align = a
	l.dirty = true
}

// ResetConstraints removes the width and alignment, so that the next
// measurement reports the natural extents of the text.
func (l *Layout) ResetConstraints() {
	l.SetWidth(-1)
	l.SetAlignment(AlignLeft)
}

// PixelSize is the size of the logical extents, rounded out to pixels.
func (l *Layout) PixelSize() (width, height int) {
	r := l.PixelExtents()
	return r.Dx(), r.Dy()
}

// PixelExtents is the logical rectangle of the laid out text relative to
// the layout origin.
func (l *Layout) PixelExtents() image.Rectangle {
	l.update()
	return image.Rect(l.extent.Min.X.Floor(), l.extent.Min.Y.Floor(), l.extent.Max.X.Ceil(), l.extent.Max.Y.Ceil())
}

func (l *Layout) LineCount() int {
	l.update()
	return len(l.lines)
}

// Draw paints the text with its top-left corner at origin. fg is the colour
// of runs that do not set their own. Glyphs are composited over dst.
func (l *Layout) Draw(dst draw.Image, origin fixed.Point26_6, fg color.Color) {
	l.update()

	for _, ln := range l.lines {
		x := origin.X + ln.offset
		top := origin.Y + ln.top
		baseline := top + ln.ascent

		for _, p := range ln.pieces {
			if p.style.bg != nil {
				rect := image.Rect(x.Floor(), top.Floor(), (x + p.width).Ceil(), (top + ln.height).Ceil())
				draw.Draw(dst, rect, image.NewUniform(p.style.bg), image.Point{}, draw.Over)
			}

			col := fg
			if p.style.fg != nil {
				col = p.style.fg
			}
			src := image.NewUniform(col)

			if !p.space {
				d := font.Drawer{
					Dst:  dst,
					Src:  src,
					Face: p.style.face,
					Dot:  fixed.Point26_6{X: x, Y: baseline - p.style.rise},
				}
				d.DrawString(p.text)
			}

			m := p.style.face.Metrics()
			thickness := max(1, m.Height.Round()/20)
			if p.style.underline {
				y := (baseline + m.Descent/3).Round()
				draw.Draw(dst, image.Rect(x.Floor(), y, (x+p.width).Ceil(), y+thickness), src, image.Point{}, draw.Over)
			}
			if p.style.strike {
				y := (baseline - m.Ascent/3).Round()
				draw.Draw(dst, image.Rect(x.Floor(), y, (x+p.width).Ceil(), y+thickness), src, image.Point{}, draw.Over)
			}

			x += p.width
		}
	}
}

func (l *Layout) update() {
	if !l.dirty {
		return
	}
	l.dirty = false

	base := &runStyle{face: l.fonts.Face(l.desc)}

	var paragraphs [][]piece
	current := []piece{}
	for _, r := range l.runs {
		style := l.resolve(r.attrs)
		for i, text := range strings.Split(r.text, "\n") {
			if i > 0 {
				paragraphs = append(paragraphs, current)
				current = []piece{}
			}
			current = append(current, split(text, style)...)
		}
	}
	paragraphs = append(paragraphs, current)

	l.lines = l.lines[:0]
	for _, para := range paragraphs {
		l.lines = append(l.lines, l.wrap(para, base)...)
	}

	var widest fixed.Int26_6
	for _, ln := range l.lines {
		widest = max(widest, ln.width)
	}
	avail := widest
	if l.width >= 0 {
		avail = fixed.I(l.width)
	}

	var y fixed.Int26_6
	l.extent = fixed.Rectangle26_6{}
	for i := range l.lines {
		ln := &l.lines[i]
		switch l.align {
		case AlignCenter:
			ln.offset = (avail - ln.width) / 2
		case AlignRight:
			ln.offset = avail - ln.width
		}
		ln.top = y
		y += ln.height

		if i == 0 {
			l.extent.Min.X, l.extent.Max.X = ln.offset, ln.offset+ln.width
		}
		l.extent.Min.X = min(l.extent.Min.X, ln.offset)
		l.extent.Max.X = max(l.extent.Max.X, ln.offset+ln.width)
	}
	l.extent.Max.Y = y
}

func (l *Layout) resolve(a attrs) *runStyle {
	s := &runStyle{
		face:      l.fonts.Face(a.font.apply(l.desc)),
		fg:        a.fg,
		bg:        a.bg,
		underline: a.underline,
		strike:    a.strike,
	}
	if a.rise != 0 {
		s.rise = fixed.Int26_6(a.rise * float64(s.face.Metrics().Height))
	}
	return s
}

// split cuts text into alternating runs of spaces and non-spaces, the
// units lines are broken between.
func split(text string, style *runStyle) []piece {
	var pieces []piece
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i > start && space != inSpace {
			pieces = append(pieces, newPiece(text[start:i], style))
			start = i
		}
		inSpace = space
	}
	if start < len(text) {
		pieces = append(pieces, newPiece(text[start:], style))
	}
	return pieces
}

func newPiece(text string, style *runStyle) piece {
	space := strings.TrimFunc(text, unicode.IsSpace) == ""
	if space {
		// Tabs and other blanks measure as plain spaces.
		text = strings.Repeat(" ", len([]rune(text)))
	}
	return piece{
		text:  text,
		style: style,
		space: space,
		width: font.MeasureString(style.face, text),
	}
}

// wrap breaks one paragraph into lines no wider than the layout width.
// Breaks happen only between words, so a word wider than the layout
// overflows its line.
func (l *Layout) wrap(para []piece, base *runStyle) []line {
	limit := fixed.I(l.width)
	var lines []line
	cur := line{}

	for _, p := range para {
		if l.width >= 0 && !p.space && cur.width+p.width > limit && hasText(cur.pieces) {
			lines = append(lines, finish(cur, base, true))
			cur = line{}
		}
		if p.space && len(cur.pieces) == 0 && len(lines) > 0 {
			// spaces at a wrap point are consumed by the break
			continue
		}
		cur.pieces = append(cur.pieces, p)
		cur.width += p.width
	}
	return append(lines, finish(cur, base, false))
}

func hasText(pieces []piece) bool {
	for _, p := range pieces {
		if !p.space {
			return true
		}
	}
	return false
}

// finish computes the vertical metrics of a line, dropping the trailing
// blanks of a wrapped one. An empty line takes the metrics of the base font.
func finish(ln line, base *runStyle, wrapped bool) line {
	for wrapped && len(ln.pieces) > 1 && ln.pieces[len(ln.pieces)-1].space {
		ln.width -= ln.pieces[len(ln.pieces)-1].width
		ln.pieces = ln.pieces[:len(ln.pieces)-1]
	}

	faces := []font.Face{base.face}
	if len(ln.pieces) > 0 {
		faces = faces[:0]
		for _, p := range ln.pieces {
			faces = append(faces, p.style.face)
		}
	}
	for _, face := range faces {
		m := face.Metrics()
		ln.ascent = max(ln.ascent, m.Ascent)
		ln.descent = max(ln.descent, m.Descent)
		ln.height = max(ln.height, m.Height)
	}
	ln.height = max(ln.height, ln.ascent+ln.descent)
	return ln
}
