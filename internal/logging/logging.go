// Package logging builds the structured loggers used across cellgrid.
package logging

import (
	"io"
	"os"
	"time"

	"charm.land/log/v2"
)

// Prefix is printed before every log line.
const Prefix = "cellgrid"

// New returns a logger writing to w. Debug output is enabled when debug is
// set. A nil writer logs to stderr.
func New(w io.Writer, debug bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Printf adapts a logger to the Printf style used by the terminal emulator.
type Printf struct {
	Logger *log.Logger
}

// Printf logs a formatted debug message.
func (p Printf) Printf(format string, v ...any) {
	p.Logger.Debugf(format, v...)
}
