//go:build unix

package input

import (
	"os"
	"syscall"
)

var resumeSignals = []os.Signal{syscall.SIGUSR1}
