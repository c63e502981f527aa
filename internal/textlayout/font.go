package textlayout

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type Weight int

const (
	WeightNormal Weight = iota
	WeightMedium
	WeightBold
)

type Style int

const (
	StyleNormal Style = iota
	StyleItalic
)

// DefaultSize is the point size used when a description names none.
const DefaultSize = 10

// FontDescription selects a face the way a Pango font description string
// does: "[FAMILY-LIST] [STYLE-OPTIONS] [SIZE]", e.g. "Sans Bold 20" or
// "Mono, Monospace 12px".
type FontDescription struct {
	Families []string
	Weight   Weight
	Style    Style
	// Size is in points, or in pixels when Absolute is set.
	Size     float64
	Absolute bool
}

type descFields uint8

const (
	hasWeight descFields = 1 << iota
	hasStyle
	hasSize
)

var weightWords = map[string]Weight{
	"thin":        WeightNormal,
	"ultra-light": WeightNormal,
	"light":       WeightNormal,
	"book":        WeightNormal,
	"regular":     WeightNormal,
	"normal":      WeightNormal,
	"roman":       WeightNormal,
	"medium":      WeightMedium,
	"semi-bold":   WeightBold,
	"semibold":    WeightBold,
	"demi-bold":   WeightBold,
	"bold":        WeightBold,
	"ultra-bold":  WeightBold,
	"extra-bold":  WeightBold,
	"heavy":       WeightBold,
	"black":       WeightBold,
}

var styleWords = map[string]Style{
	"italic":  StyleItalic,
	"oblique": StyleItalic,
}

// ParseFontDescription parses s, filling in the Sans family and the default
// size when s does not name them.
func ParseFontDescription(s string) FontDescription {
	d, fields := parseDescription(s)
	if len(d.Families) == 0 {
		d.Families = []string{"Sans"}
	}
	if fields&hasSize == 0 {
		d.Size = DefaultSize
	}
	return d
}

func parseDescription(s string) (FontDescription, descFields) {
	var d FontDescription
	var fields descFields

	words := strings.Fields(s)
	if n := len(words); n > 0 {
		if size, abs, ok := parseSize(words[n-1]); ok {
			d.Size, d.Absolute = size, abs
			fields |= hasSize
			words = words[:n-1]
		}
	}

	for len(words) > 0 {
		w := strings.ToLower(strings.TrimSuffix(words[len(words)-1], ","))
		if weight, ok := weightWords[w]; ok {
			if fields&hasWeight == 0 {
				d.Weight = weight
				fields |= hasWeight
			}
		} else if style, ok := styleWords[w]; ok {
			d.Style = style
			fields |= hasStyle
		} else {
			break
		}
		words = words[:len(words)-1]
	}

	for _, family := range strings.Split(strings.Join(words, " "), ",") {
		if family = strings.TrimSpace(family); family != "" {
			d.Families = append(d.Families, family)
		}
	}
	return d, fields
}

func parseSize(w string) (float64, bool, bool) {
	abs := strings.HasSuffix(w, "px")
	v, err := strconv.ParseFloat(strings.TrimSuffix(w, "px"), 64)
	if err != nil || v <= 0 {
		return 0, false, false
	}
	return v, abs, true
}

func (d FontDescription) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(d.Families, ","))
	switch d.Weight {
	case WeightMedium:
		b.WriteString(" Medium")
	case WeightBold:
		b.WriteString(" Bold")
	}
	if d.Style == StyleItalic {
		b.WriteString(" Italic")
	}
	b.WriteString(" " + strconv.FormatFloat(d.Size, 'g', -1, 64))
	if d.Absolute {
		b.WriteString("px")
	}
	return b.String()
}

type builtinFamily int

const (
	familySans builtinFamily = iota
	familyMono
)

var builtinNames = map[string]builtinFamily{
	"sans":       familySans,
	"sans-serif": familySans,
	"sans serif": familySans,
	"go":         familySans,
	"serif":      familySans,
	"mono":       familyMono,
	"monospace":  familyMono,
	"go mono":    familyMono,
	"courier":    familyMono,
	"fixed":      familyMono,
}

// FontSet turns descriptions into faces at a fixed resolution. Faces and
// parsed font files are cached for the life of the set.
type FontSet struct {
	dpi   float64
	log   *logrus.Entry
	faces map[faceKey]font.Face
	files map[string]fontFile
	warn  map[string]bool
}

type faceKey struct {
	source string
	size   float64
}

// fontFile is a parsed font of either library; exactly one field is set.
type fontFile struct {
	sfnt *opentype.Font
	tt   *truetype.Font
}

func NewFontSet(dpi float64, log *logrus.Entry) *FontSet {
	if dpi <= 0 {
		dpi = 96
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FontSet{
		dpi:   dpi,
		log:   log,
		faces: make(map[faceKey]font.Face),
		files: make(map[string]fontFile),
		warn:  make(map[string]bool),
	}
}

// Face returns the face for d. The first family that can be loaded wins;
// when none can, the built-in sans face is used.
func (s *FontSet) Face(d FontDescription) font.Face {
	// A pixel size is a point size at 72 dpi.
	size := d.Size * s.dpi / 72
	if d.Absolute {
		size = d.Size
	}
	if size <= 0 {
		size = DefaultSize * s.dpi / 72
	}

	for _, family := range d.Families {
		if isFontPath(family) {
			if face, ok := s.fileFace(family, size); ok {
				return face
			}
			continue
		}
		if b, ok := builtinNames[strings.ToLower(family)]; ok {
			return s.builtinFace(b, d.Weight, d.Style, size)
		}
		s.warnOnce(family, "font family %q is not available, using a built-in face", family)
	}
	return s.builtinFace(fallbackFamily(d.Families), d.Weight, d.Style, size)
}

// fallbackFamily keeps monospaced requests monospaced when the named
// family itself is unavailable.
func fallbackFamily(families []string) builtinFamily {
	for _, family := range families {
		lower := strings.ToLower(family)
		if strings.Contains(lower, "mono") || strings.Contains(lower, "courier") {
			return familyMono
		}
	}
	return familySans
}

func isFontPath(family string) bool {
	switch strings.ToLower(filepath.Ext(family)) {
	case ".ttf", ".otf", ".ttc", ".otc":
		return true
	}
	return strings.ContainsRune(family, os.PathSeparator)
}

func (s *FontSet) warnOnce(key, format string, args ...any) {
	if s.warn[key] {
		return
	}
	s.warn[key] = true
	s.log.Warnf(format, args...)
}

func (s *FontSet) fileFace(path string, size float64) (font.Face, bool) {
	key := faceKey{source: path, size: size}
	if face, ok := s.faces[key]; ok {
		return face, true
	}

	f, ok := s.files[path]
	if !ok {
		var err error
		f, err = loadFontFile(path)
		if err != nil {
			s.warnOnce(path, "load font: %v", err)
			return nil, false
		}
		s.files[path] = f
		s.log.WithField("path", path).Debug("font file loaded")
	}

	var face font.Face
	if f.tt != nil {
		face = truetype.NewFace(f.tt, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	} else {
		var err error
		face, err = opentype.NewFace(f.sfnt, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			s.warnOnce(path, "load font: %s: %v", path, err)
			return nil, false
		}
	}
	s.faces[key] = face
	return face, true
}

// loadFontFile parses TrueType files with freetype and everything else,
// including collections, with the opentype package.
func loadFontFile(path string) (fontFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fontFile{}, err
	}

	if strings.EqualFold(filepath.Ext(path), ".ttf") {
		tt, err := truetype.Parse(data)
		if err == nil {
			return fontFile{tt: tt}, nil
		}
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext == ".ttc" || ext == ".otc" {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return fontFile{}, fmt.Errorf("%s: %w", path, err)
		}
		f, err := coll.Font(0)
		if err != nil {
			return fontFile{}, fmt.Errorf("%s: %w", path, err)
		}
		return fontFile{sfnt: f}, nil
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return fontFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return fontFile{sfnt: f}, nil
}

func builtinData(family builtinFamily, weight Weight, style Style) (string, []byte) {
	italic := style == StyleItalic
	if family == familyMono {
		switch {
		case weight == WeightBold && italic:
			return "gomonobolditalic", gomonobolditalic.TTF
		case weight == WeightBold:
			return "gomonobold", gomonobold.TTF
		case italic:
			return "gomonoitalic", gomonoitalic.TTF
		}
		return "gomono", gomono.TTF
	}

	switch {
	case weight == WeightBold && italic:
		return "gobolditalic", gobolditalic.TTF
	case weight == WeightBold:
		return "gobold", gobold.TTF
	case weight == WeightMedium && italic:
		return "gomediumitalic", gomediumitalic.TTF
	case weight == WeightMedium:
		return "gomedium", gomedium.TTF
	case italic:
		return "goitalic", goitalic.TTF
	}
	return "goregular", goregular.TTF
}

func (s *FontSet) builtinFace(family builtinFamily, weight Weight, style Style, size float64) font.Face {
	name, data := builtinData(family, weight, style)
	key := faceKey{source: name, size: size}
	if face, ok := s.faces[key]; ok {
		return face
	}

	f, ok := s.files[name]
	if !ok {
		parsed, err := opentype.Parse(data)
		if err != nil {
			panic(fmt.Sprintf("textlayout: embedded font %s: %v", name, err))
		}
		f = fontFile{sfnt: parsed}
		s.files[name] = f
	}

	face, err := opentype.NewFace(f.sfnt, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		panic(fmt.Sprintf("textlayout: embedded font %s: %v", name, err))
	}
	s.faces[key] = face
	return face
}
