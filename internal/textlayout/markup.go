package textlayout

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"box11/internal/argb"
)

// fontDelta is the part of a font description a markup element changes.
type fontDelta struct {
	families []string
	weight   Weight
	style    Style
	size     float64
	absolute bool
	fields   descFields
	scale    float64
}

func (f fontDelta) apply(base FontDescription) FontDescription {
	d := base
	if len(f.families) > 0 {
		d.Families = f.families
	}
	if f.fields&hasWeight != 0 {
		d.Weight = f.weight
	}
	if f.fields&hasStyle != 0 {
		d.Style = f.style
	}
	if f.fields&hasSize != 0 {
		d.Size, d.Absolute = f.size, f.absolute
	}
	if f.scale != 0 {
		d.Size *= f.scale
	}
	return d
}

func (f *fontDelta) setSize(size float64, absolute bool) {
	f.size, f.absolute = size, absolute
	f.fields |= hasSize
	f.scale = 0
}

func (f *fontDelta) scaleBy(factor float64) {
	if f.scale == 0 {
		f.scale = 1
	}
	f.scale *= factor
}

// attrs is the text style in effect inside a markup element.
type attrs struct {
	font      fontDelta
	fg, bg    color.Color
	underline bool
	strike    bool
	// rise shifts the baseline up, in ems of the run's font.
	rise float64
}

type run struct {
	text  string
	attrs attrs
}

const markupRoot = "markup"

// Relative sizes used by <big>, <small> and the size keywords.
const scaleStep = 1.2

var sizeKeywords = map[string]float64{
	"xx-small": 1 / (scaleStep * scaleStep * scaleStep),
	"x-small":  1 / (scaleStep * scaleStep),
	"small":    1 / scaleStep,
	"medium":   1,
	"large":    scaleStep,
	"x-large":  scaleStep * scaleStep,
	"xx-large": scaleStep * scaleStep * scaleStep,
	"larger":   scaleStep,
	"smaller":  1 / scaleStep,
}

var namedColors = map[string]argb.Color{
	"black":   argb.Black,
	"white":   argb.White,
	"red":     0xFFFF0000,
	"green":   0xFF008000,
	"lime":    0xFF00FF00,
	"blue":    0xFF0000FF,
	"yellow":  0xFFFFFF00,
	"cyan":    0xFF00FFFF,
	"magenta": 0xFFFF00FF,
	"orange":  0xFFFFA500,
	"gray":    0xFFBEBEBE,
	"grey":    0xFFBEBEBE,
}

// parseMarkup splits Pango-style markup into styled runs.
func parseMarkup(s string) ([]run, error) {
	dec := xml.NewDecoder(strings.NewReader("<" + markupRoot + ">" + s + "</" + markupRoot + ">"))

	var stack []attrs
	var runs []run
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse markup: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				stack = append(stack, attrs{})
				continue
			}
			next, err := openElement(stack[len(stack)-1], t)
			if err != nil {
				return nil, fmt.Errorf("parse markup: %w", err)
			}
			stack = append(stack, next)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(t) > 0 && len(stack) > 0 {
				runs = append(runs, run{text: string(t), attrs: stack[len(stack)-1]})
			}
		}
	}
	return runs, nil
}

func openElement(parent attrs, el xml.StartElement) (attrs, error) {
	a := parent
	switch el.Name.Local {
	case "b":
		a.font.weight = WeightBold
		a.font.fields |= hasWeight
	case "i":
		a.font.style = StyleItalic
		a.font.fields |= hasStyle
	case "u":
		a.underline = true
	case "s":
		a.strike = true
	case "tt":
		a.font.families = []string{"Mono"}
	case "big":
		a.font.scaleBy(scaleStep)
	case "small":
		a.font.scaleBy(1 / scaleStep)
	case "sup":
		a.font.scaleBy(1 / scaleStep)
		a.rise += 0.35
	case "sub":
		a.font.scaleBy(1 / scaleStep)
		a.rise -= 0.2
	case "span":
		for _, attr := range el.Attr {
			if err := a.setSpanAttr(attr.Name.Local, attr.Value); err != nil {
				return parent, err
			}
		}
	default:
		return parent, fmt.Errorf("unknown tag <%s>", el.Name.Local)
	}

	if el.Name.Local != "span" && len(el.Attr) > 0 {
		return parent, fmt.Errorf("tag <%s> does not take attributes", el.Name.Local)
	}
	return a, nil
}

func (a *attrs) setSpanAttr(name, value string) error {
	switch name {
	case "font", "font_desc", "font_family", "face":
		d, fields := parseDescription(value)
		if name == "font_family" || name == "face" {
			d, fields = FontDescription{Families: []string{value}}, 0
		}
		if len(d.Families) > 0 {
			a.font.families = d.Families
		}
		if fields&hasWeight != 0 {
			a.font.weight = d.Weight
			a.font.fields |= hasWeight
		}
		if fields&hasStyle != 0 {
			a.font.style = d.Style
			a.font.fields |= hasStyle
		}
		if fields&hasSize != 0 {
			a.font.setSize(d.Size, d.Absolute)
		}
	case "foreground", "fgcolor", "color":
		c, err := parseMarkupColor(value)
		if err != nil {
			return err
		}
		a.fg = c
	case "background", "bgcolor":
		c, err := parseMarkupColor(value)
		if err != nil {
			return err
		}
		a.bg = c
	case "size":
		return a.setSizeAttr(value)
	case "weight":
		w, err := parseWeight(value)
		if err != nil {
			return err
		}
		a.font.weight = w
		a.font.fields |= hasWeight
	case "style":
		switch value {
		case "normal":
			a.font.style = StyleNormal
		case "italic", "oblique":
			a.font.style = StyleItalic
		default:
			return fmt.Errorf("invalid style %q", value)
		}
		a.font.fields |= hasStyle
	case "underline":
		switch value {
		case "none", "false":
			a.underline = false
		case "single", "double", "low", "error", "true":
			a.underline = true
		default:
			return fmt.Errorf("invalid underline %q", value)
		}
	case "strikethrough":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid strikethrough %q", value)
		}
		a.strike = b
	default:
		return fmt.Errorf("unknown span attribute %q", name)
	}
	return nil
}

// setSizeAttr accepts Pango units (1024ths of a point), "12pt", "12px" and
// the CSS-like keywords.
func (a *attrs) setSizeAttr(value string) error {
	if factor, ok := sizeKeywords[value]; ok {
		a.font.scaleBy(factor)
		return nil
	}
	if v, ok := strings.CutSuffix(value, "pt"); ok {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil || size <= 0 {
			return fmt.Errorf("invalid size %q", value)
		}
		a.font.setSize(size, false)
		return nil
	}
	if v, ok := strings.CutSuffix(value, "px"); ok {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil || size <= 0 {
			return fmt.Errorf("invalid size %q", value)
		}
		a.font.setSize(size, true)
		return nil
	}
	units, err := strconv.Atoi(value)
	if err != nil || units <= 0 {
		return fmt.Errorf("invalid size %q", value)
	}
	a.font.setSize(float64(units)/1024, false)
	return nil
}

func parseWeight(value string) (Weight, error) {
	if n, err := strconv.Atoi(value); err == nil {
		switch {
		case n >= 600:
			return WeightBold, nil
		case n >= 500:
			return WeightMedium, nil
		}
		return WeightNormal, nil
	}
	if w, ok := weightWords[strings.ToLower(value)]; ok {
		return w, nil
	}
	switch value {
	case "ultrabold", "ultraheavy":
		return WeightBold, nil
	case "ultralight":
		return WeightNormal, nil
	}
	return WeightNormal, fmt.Errorf("invalid weight %q", value)
}

// parseMarkupColor reads #RGB, #RRGGBB, #RRGGBBAA or a colour name. The
// result is premultiplied like every other colour in the program.
func parseMarkupColor(value string) (color.Color, error) {
	if c, ok := namedColors[strings.ToLower(value)]; ok {
		return c, nil
	}

	hex, ok := strings.CutPrefix(value, "#")
	if !ok {
		return nil, fmt.Errorf("invalid color %q", value)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q", value)
	}

	switch len(hex) {
	case 3:
		r, g, b := uint8(v>>8&0xF), uint8(v>>4&0xF), uint8(v&0xF)
		return argb.New(0xFF, r*0x11, g*0x11, b*0x11), nil
	case 6:
		return argb.New(0xFF, uint8(v>>16), uint8(v>>8), uint8(v)), nil
	case 8:
		return argb.Premultiply(uint8(v), uint8(v>>24), uint8(v>>16), uint8(v>>8)), nil
	}
	return nil, fmt.Errorf("invalid color %q", value)
}
