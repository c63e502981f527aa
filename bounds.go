package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"box11/internal/config"
	"box11/internal/paint"
	"box11/internal/textlayout"
)

// printBounds writes the size the box would get for the first line of
// input, without a display. Axes that are not autosized keep their
// configured size.
func printBounds(cfg *config.Config, stdin io.Reader, stdout io.Writer, log *logrus.Entry) error {
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read input: %w", err)
	}
	text := strings.TrimSuffix(line, "\n")

	width, height := int(cfg.Width), int(cfg.Height)
	if cfg.Autosize() {
		dpi := cfg.DPI
		if dpi <= 0 {
			dpi = defaultDPI
		}
		layout := textlayout.New(textlayout.NewFontSet(dpi, log))
		if err := paint.Shape(layout, cfg, text); err != nil {
			log.WithError(err).Warn("invalid markup, measuring text as is")
		}
		size := paint.AutosizeBounds(cfg, layout)
		width, height = size.X, size.Y
	}

	_, err = fmt.Fprintf(stdout, "%dx%d\n", width, height)
	return err
}
