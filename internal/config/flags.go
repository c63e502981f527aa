package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"box11/internal/argb"
)

const Usage = "Usage: box11 [OPTIONS]\n" +
	"   --help              Show this help\n" +
	"-z --bounds            Print the size of the box that would be drawn and then exit\n" +
	"-f --font [FONT]       Print text with font FONT\n" +
	"-u --autosize (h)(v)   Adjust the window dimensions to fit the text. Overrides other positioning arguments\n" +
	"-x --xpos [X]          Set the x-coordinate of the box\n" +
	"-y --ypos [Y]          Set the y-coordinate of the box\n" +
	"-w --width [WIDTH]     Set the width of the box\n" +
	"-h --height [HEIGHT]   Set the height of the box\n" +
	"-b --border [BORDER]   Set the border width of the box\n" +
	"-t --fg-color [COLOR]  Draw text with the color COLOR\n" +
	"-k --bg-color [COLOR]  Draw box with the background color COLOR\n" +
	"-o --border-color [COLOR]\n" +
	"                       Draw box border with color COLOR\n" +
	"-a --align (l|c|r)     Horizontally align text left, center, or right\n" +
	"-p --padding [PADDING] Horizontally pad the text by PADDING pixels\n" +
	"-v --vertical-align (t|c|b)\n" +
	"                       Vertically align text top, center, or bottom\n" +
	"   --plain             Show input verbatim instead of parsing markup\n" +
	"   --hold              Keep the box up after the input is closed\n" +
	"   --pad-fixed-axis    Pad the non-autosized dimension too (default true)\n" +
	"   --name [NAME]       Set the window name and class (default box11)\n" +
	"   --dpi [DPI]         Font resolution (default: Xft.dpi, or 96)\n" +
	"   --display [DISPLAY] X display to connect to (default $DISPLAY)\n" +
	"   --config [FILE]     Read defaults from FILE (KEY=VALUE lines)\n" +
	"   --log-level [LEVEL] Diagnostics on standard error (default warning)\n" +
	"\nColors should be given in the form AARRGGBB.\n" +
	"All measurements are in pixels.\n" +
	"Options can also be set with BOX11_<OPTION> environment variables\n" +
	"(e.g. BOX11_BG_COLOR) or in $XDG_CONFIG_HOME/box11/box11.env.\n"

// ErrAlignment is returned for an alignment argument other than l, c or r
// (t, c or b vertically).
var ErrAlignment = errors.New("Unrecognized alignment setting.")

// Options that cannot come from a defaults file or the environment.
var notSettable = []string{"help", "config"}

// BindFlags registers every option on fs, storing into cfg.
func BindFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.SortFlags = false

	flags.Bool("help", false, "Show this help")
	flags.BoolVarP(&cfg.Bounds, "bounds", "z", cfg.Bounds, "Print the size of the box that would be drawn and then exit")
	flags.BoolVar(&cfg.Bounds, "return-autosize", cfg.Bounds, "Alias of --bounds")
	_ = flags.MarkHidden("return-autosize")
	flags.StringVarP(&cfg.Font, "font", "f", cfg.Font, "Print text with font FONT")
	flags.VarP(&autosizeValue{cfg: cfg}, "autosize", "u", "Adjust the window dimensions to fit the text (h, v or hv)")
	flags.IntVarP(&cfg.X, "xpos", "x", cfg.X, "Set the x-coordinate of the box")
	flags.IntVarP(&cfg.Y, "ypos", "y", cfg.Y, "Set the y-coordinate of the box")
	flags.Uint16VarP(&cfg.Width, "width", "w", cfg.Width, "Set the width of the box")
	flags.Uint16VarP(&cfg.Height, "height", "h", cfg.Height, "Set the height of the box")
	flags.Uint16VarP(&cfg.Border, "border", "b", cfg.Border, "Set the border width of the box")
	flags.VarP((*colorValue)(&cfg.Foreground), "fg-color", "t", "Draw text with the color COLOR")
	flags.VarP((*colorValue)(&cfg.Background), "bg-color", "k", "Draw box with the background color COLOR")
	flags.VarP((*colorValue)(&cfg.BorderColor), "border-color", "o", "Draw box border with color COLOR")
	flags.IntVarP(&cfg.Padding, "padding", "p", cfg.Padding, "Horizontally pad the text by PADDING pixels")
	flags.VarP((*hAlignValue)(&cfg.Align), "align", "a", "Horizontally align text left, center, or right")
	flags.VarP((*vAlignValue)(&cfg.VAlign), "vertical-align", "v", "Vertically align text top, center, or bottom")
	flags.BoolVar(&cfg.Plain, "plain", cfg.Plain, "Show input verbatim instead of parsing markup")
	flags.BoolVar(&cfg.Hold, "hold", cfg.Hold, "Keep the box up after the input is closed")
	flags.BoolVar(&cfg.PadFixedAxis, "pad-fixed-axis", cfg.PadFixedAxis, "Pad the non-autosized dimension too")
	flags.StringVar(&cfg.Name, "name", cfg.Name, "Set the window name and class")
	flags.Float64Var(&cfg.DPI, "dpi", cfg.DPI, "Font resolution")
	flags.StringVar(&cfg.Display, "display", cfg.Display, "X display to connect to")
	flags.StringVar(&cfg.File, "config", cfg.File, "Read defaults from FILE")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Diagnostics on standard error")
}

// DefaultFile is the defaults file read when --config is not given.
func DefaultFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName, AppName+".env")
}

// FlagName maps a KEY of a defaults file or environment variable suffix to
// its long option name: BG_COLOR is --bg-color.
func FlagName(key string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "_", "-"))
}

// ApplyEnvironment sets every option not given on the command line from a
// BOX11_<KEY> variable found through lookup.
func ApplyEnvironment(flags *pflag.FlagSet, lookup func(string) (string, bool)) error {
	prefix := strings.ToUpper(AppName) + "_"

	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || slices.Contains(notSettable, f.Name) {
			return
		}
		key := prefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		value, ok := lookup(key)
		if !ok {
			return
		}
		if err := flags.Set(f.Name, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	})
	return errors.Join(errs...)
}

// LoadDefaultsFile applies KEY=VALUE lines from path to the options that are
// still unset. A missing file is only an error when explicit is true.
// Unknown keys are returned as warnings.
func LoadDefaultsFile(flags *pflag.FlagSet, path string, explicit bool) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read defaults %s: %w", path, err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var warnings []string
	var errs []error
	for _, key := range keys {
		name := FlagName(key)
		f := flags.Lookup(name)
		if f == nil || slices.Contains(notSettable, name) {
			warnings = append(warnings, fmt.Sprintf("%s: unknown option %q", path, key))
			continue
		}
		if f.Changed {
			continue
		}
		if err := flags.Set(name, values[key]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %s: %w", path, key, err))
		}
	}
	return warnings, errors.Join(errs...)
}

type colorValue argb.Color

func (c *colorValue) Set(s string) error {
	*c = colorValue(argb.Parse(s))
	return nil
}

func (c *colorValue) String() string { return argb.Color(*c).String() }
func (c *colorValue) Type() string   { return "color" }

type hAlignValue HAlign

func (a *hAlignValue) Set(s string) error {
	switch firstByte(s) {
	case 'l':
		*a = hAlignValue(AlignLeft)
	case 'c':
		*a = hAlignValue(AlignCenter)
	case 'r':
		*a = hAlignValue(AlignRight)
	default:
		return ErrAlignment
	}
	return nil
}

func (a *hAlignValue) String() string {
	return [...]string{"l", "c", "r"}[*a]
}

func (a *hAlignValue) Type() string { return "l|c|r" }

type vAlignValue VAlign

func (a *vAlignValue) Set(s string) error {
	switch firstByte(s) {
	case 't':
		*a = vAlignValue(VAlignTop)
	case 'c':
		*a = vAlignValue(VAlignCenter)
	case 'b':
		*a = vAlignValue(VAlignBottom)
	default:
		return ErrAlignment
	}
	return nil
}

func (a *vAlignValue) String() string {
	return [...]string{"t", "c", "b"}[*a]
}

func (a *vAlignValue) Type() string { return "t|c|b" }

func firstByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}

// autosizeValue turns on the horizontal and vertical autosize flags. Letters
// other than h and v are reported and skipped.
type autosizeValue struct {
	cfg *Config
}

func (a *autosizeValue) Set(s string) error {
	for _, r := range s {
		switch r {
		case 'h':
			a.cfg.AutosizeH = true
		case 'v':
			a.cfg.AutosizeV = true
		default:
			a.cfg.notes = append(a.cfg.notes, fmt.Sprintf("Unrecognized autosize direction: \"%c\".", r))
		}
	}
	return nil
}

func (a *autosizeValue) String() string {
	if a.cfg == nil {
		return ""
	}
	s := ""
	if a.cfg.AutosizeH {
		s += "h"
	}
	if a.cfg.AutosizeV {
		s += "v"
	}
	return s
}

func (a *autosizeValue) Type() string { return "hv" }
