// Package config holds the display parameters of a box. A Config is filled
// once from defaults, a defaults file, the environment and the command line,
// and is read-only afterwards.
package config

import (
	"fmt"
	"slices"

	"box11/internal/argb"
)

// AppName is the default window name and class, and the prefix of
// environment overrides and X resources.
const AppName = "box11"

// HAlign is horizontal text alignment.
type HAlign int

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
)

// VAlign is vertical text alignment.
type VAlign int

const (
	VAlignTop VAlign = iota
	VAlignCenter
	VAlignBottom
)

type Config struct {
	Font string

	X, Y          int
	Width, Height uint16
	Border        uint16
	Padding       int

	Foreground  argb.Color
	Background  argb.Color
	BorderColor argb.Color

	Align  HAlign
	VAlign VAlign

	AutosizeH bool
	AutosizeV bool
	// PadFixedAxis adds 2*Padding to the non-autosized dimension when the
	// window is resized by the autosize pass.
	PadFixedAxis bool

	// Bounds prints the autosized dimensions for the first input line and
	// exits without opening a window.
	Bounds bool
	// Plain renders input verbatim instead of parsing it as markup.
	Plain bool
	// Hold keeps the window up after standard input is closed.
	Hold bool

	Name     string
	DPI      float64
	Display  string
	LogLevel string
	File     string

	// notes collects problems found while parsing that are not fatal.
	notes []string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Font:         "Sans 20",
		X:            30,
		Y:            30,
		Width:        200,
		Height:       50,
		Border:       5,
		Padding:      0,
		Foreground:   argb.White,
		Background:   argb.Transparent,
		BorderColor:  argb.Color(0x88888888),
		Align:        AlignCenter,
		VAlign:       VAlignCenter,
		PadFixedAxis: true,
		Name:         AppName,
		LogLevel:     "warning",
	}
}

// Autosize reports whether either axis is autosized.
func (c *Config) Autosize() bool {
	return c.AutosizeH || c.AutosizeV
}

// Warnings lists settings that are accepted but have no visible effect.
func (c *Config) Warnings() []string {
	warnings := slices.Clone(c.notes)
	if (c.AutosizeH && c.Align != AlignCenter) || (c.AutosizeV && c.VAlign != VAlignCenter) {
		warnings = append(warnings, "Alignment settings are ignored when the box is autosized.")
	}
	return warnings
}

func (c *Config) String() string {
	return fmt.Sprintf("font=%q geometry=%dx%d+%d+%d border=%d padding=%d fg=%s bg=%s border-color=%s autosize=%t/%t",
		c.Font, c.Width, c.Height, c.X, c.Y, c.Border, c.Padding,
		c.Foreground, c.Background, c.BorderColor, c.AutosizeH, c.AutosizeV)
}
