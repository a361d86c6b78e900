// Package logging constructs the application loggers.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a new [log.Logger] writing to w, with timestamps and caller
// reporting enabled. The writer defaults to [os.Stderr].
func New(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// Named creates a child logger tagged with a component name.
func Named(l *log.Logger, name string) *log.Logger {
	return l.With("component", name)
}
