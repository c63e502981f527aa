//go:build !unix

package input

import "os"

var resumeSignals = []os.Signal{os.Interrupt}
