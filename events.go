package main

import (
	"context"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"box11/internal/input"
)

// pumpEvents is the only reader of X events. The channel is closed when
// the connection goes away or ctx is done.
func pumpEvents(ctx context.Context, X *xgb.Conn, log *logrus.Entry) <-chan input.Event {
	events := make(chan input.Event, 8)

	go func() {
		defer close(events)

		for {
			ev, err := X.WaitForEvent()
			if ev == nil && err == nil {
				log.Debug("X connection closed")
				return
			}
			if err != nil {
				log.WithError(err).Warn("X error")
				continue
			}

			var kind input.EventKind
			switch e := ev.(type) {
			case xproto.ExposeEvent:
				// Only the last of a series.
				if e.Count != 0 {
					continue
				}
				kind = input.Expose
			case randr.ScreenChangeNotifyEvent:
				kind = input.ScreenChange
			default:
				continue
			}

			select {
			case events <- input.Event{Kind: kind}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events
}
