// Package input drives the paint routine from standard input and from
// window-system events.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

type EventKind int

const (
	// Expose means window contents were lost and must be shown again.
	Expose EventKind = iota
	// ScreenChange means the screen layout changed under the window.
	ScreenChange
)

func (k EventKind) String() string {
	switch k {
	case Expose:
		return "expose"
	case ScreenChange:
		return "screen-change"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

type Event struct {
	Kind EventKind
}

// ErrDisplayClosed is returned when the event source goes away while the
// loop is running.
var ErrDisplayClosed = errors.New("display connection closed")

// Loop reads newline-terminated text and paints each line. Only the
// goroutine calling Run ever calls Paint, Sync, Present and Suspend.
type Loop struct {
	Reader io.Reader
	// Paint renders one line of text.
	Paint func(text string) error
	// Sync pushes queued drawing commands to the display after a paint.
	Sync func()
	// Present shows the current surface again without repainting.
	Present func() error
	// Suspend blocks after an empty line until the display should resume.
	Suspend func(ctx context.Context) error
	Events  <-chan Event
	// Hold keeps the loop running after the input ends.
	Hold bool
	Log  *logrus.Entry
}

type readResult struct {
	line string
	err  error
}

// Run returns nil when the input ends (unless Hold is set) or ctx is
// cancelled, and an error when reading, painting or the display fails.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan readResult)
	go read(ctx, l.Reader, lines)

	events := l.Events
	for {
		if ctx.Err() != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return ErrDisplayClosed
			}
			if err := l.handle(ev); err != nil {
				return err
			}

		case res := <-lines:
			if res.err != nil {
				if !errors.Is(res.err, io.EOF) {
					return fmt.Errorf("read input: %w", res.err)
				}
				if !l.Hold {
					l.log().Debug("input closed")
					return nil
				}
				l.log().Debug("input closed, holding")
				lines = nil
				continue
			}

			if err := l.line(ctx, res.line); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) line(ctx context.Context, text string) error {
	text = strings.TrimSuffix(text, "\n")

	if text == "" {
		l.log().Debug("empty line, suspending")
		if l.Suspend == nil {
			return nil
		}
		if err := l.Suspend(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("suspend: %w", err)
		}
		l.log().Debug("resumed")
		return nil
	}

	if err := l.Paint(text); err != nil {
		return fmt.Errorf("paint: %w", err)
	}
	if l.Sync != nil {
		l.Sync()
	}
	return nil
}

func (l *Loop) handle(ev Event) error {
	l.log().WithField("event", ev.Kind).Debug("display event")
	if l.Present == nil {
		return nil
	}
	if err := l.Present(); err != nil {
		return fmt.Errorf("present after %s: %w", ev.Kind, err)
	}
	return nil
}

func (l *Loop) log() *logrus.Entry {
	if l.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return l.Log
}

// read delivers lines until an error, which is delivered last. A final
// line without a newline is delivered before io.EOF.
func read(ctx context.Context, r io.Reader, out chan<- readResult) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			select {
			case out <- readResult{line: line}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case out <- readResult{err: err}:
			case <-ctx.Done():
			}
			return
		}
	}
}
