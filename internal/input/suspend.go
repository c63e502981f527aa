package input

import (
	"context"
	"os"
	"os/signal"
)

// SignalSuspend returns a Suspend function that waits for one of sigs
// (SIGUSR1 by default). The signals are caught from the moment it is
// called, so a stray one does not terminate the process; one that arrives
// while nothing is suspended is discarded.
func SignalSuspend(sigs ...os.Signal) func(ctx context.Context) error {
	if len(sigs) == 0 {
		sigs = resumeSignals
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	return func(ctx context.Context) error {
		for drained := false; !drained; {
			select {
			case <-ch:
			default:
				drained = true
			}
		}

		select {
		case <-ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
