// Package paint renders one string into a window surface according to a
// box configuration.
package paint

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/math/fixed"

	"box11/internal/argb"
	"box11/internal/config"
	"box11/internal/textlayout"
)

// Limits of an X window dimension.
const (
	minDimension = 1
	maxDimension = math.MaxUint16
)

// Context is everything the paint routine draws with. Surface is replaced
// whenever autosizing resizes Window.
type Context struct {
	Window  Window
	Surface Surface
	Layout  *textlayout.Layout
	// Out receives one WIDTHxHEIGHT line per autosized paint.
	Out io.Writer
	Log *logrus.Entry
}

// DrawText paints text into ctx.Surface: clear to the background, shape the
// text, autosize the window, align and pad the text, draw it in the
// foreground colour and flush. Painting the same text twice gives the same
// pixels.
func DrawText(ctx *Context, cfg *config.Config, text string) error {
	fill(ctx.Surface, cfg.Background)

	layout := ctx.Layout
	if err := Shape(layout, cfg, text); err != nil && ctx.Log != nil {
		ctx.Log.WithError(err).Warn("invalid markup, showing text as is")
	}

	var x, y float64

	if cfg.Autosize() {
		size := AutosizeBounds(cfg, layout)
		surface, err := ctx.Window.Resize(size.X, size.Y)
		if err != nil {
			return fmt.Errorf("resize window: %w", err)
		}
		ctx.Surface = surface
		fill(ctx.Surface, cfg.Background)

		if _, err := fmt.Fprintf(ctx.Out, "%dx%d\n", size.X, size.Y); err != nil {
			return fmt.Errorf("write size: %w", err)
		}
		y += float64(cfg.Padding)
	}

	if !cfg.AutosizeH {
		layout.SetWidth(int(cfg.Width))
		layout.SetAlignment(textAlign(cfg.Align))
	}

	if !cfg.AutosizeV {
		_, textHeight := layout.PixelSize()
		y += VerticalOffset(cfg.VAlign, int(cfg.Height), cfg.Padding, textHeight)
	}

	x += float64(cfg.Padding)

	if ctx.Log != nil {
		ctx.Log.WithFields(logrus.Fields{
			"text":  layout.Text(),
			"lines": layout.LineCount(),
			"width": layout.Width(),
		}).Debug("Text laid out")
	}

	layout.Draw(ctx.Surface.Image(), fixed.Point26_6{X: toFixed(x), Y: toFixed(y)}, cfg.Foreground)

	if err := ctx.Surface.Flush(); err != nil {
		return fmt.Errorf("flush surface: %w", err)
	}
	return nil
}

// Shape loads text into layout in the configured font with no width
// constraint. Invalid markup is reported and the text is kept as is.
func Shape(layout *textlayout.Layout, cfg *config.Config, text string) error {
	layout.ResetConstraints()
	layout.SetFont(cfg.Font)
	if cfg.Plain {
		layout.SetText(text)
		return nil
	}
	return layout.SetMarkup(text)
}

// VerticalOffset is how far the text block is moved down inside a box of
// the given height. Centred text taller than the box gets a negative
// offset and overflows at both edges.
func VerticalOffset(align config.VAlign, height, padding, textHeight int) float64 {
	switch align {
	case config.VAlignTop:
		return float64(padding)
	case config.VAlignBottom:
		return float64(height - padding - textHeight)
	}
	return float64(height)/2 - float64(textHeight)/2
}

// AutosizeBounds is the window size the autosize pass asks for: the
// natural text extent plus padding on each autosized axis, the configured
// size on the other. The layout must hold the text with no constraints.
func AutosizeBounds(cfg *config.Config, layout *textlayout.Layout) image.Point {
	textWidth, textHeight := layout.PixelSize()

	fixedPad := 0
	if cfg.PadFixedAxis {
		fixedPad = 2 * cfg.Padding
	}

	width := int(cfg.Width) + fixedPad
	if cfg.AutosizeH {
		width = textWidth + 2*cfg.Padding
	}
	height := int(cfg.Height) + fixedPad
	if cfg.AutosizeV {
		height = textHeight + 2*cfg.Padding
	}

	return image.Pt(clampDimension(width), clampDimension(height))
}

func clampDimension(v int) int {
	return min(max(v, minDimension), maxDimension)
}

func textAlign(a config.HAlign) textlayout.Align {
	switch a {
	case config.AlignLeft:
		return textlayout.AlignLeft
	case config.AlignRight:
		return textlayout.AlignRight
	}
	return textlayout.AlignCenter
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// fill replaces every pixel of s with c.
func fill(s Surface, c argb.Color) {
	img := s.Image()
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}
