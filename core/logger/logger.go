package logger

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Prefix is prepended to every diagnostic line.
const Prefix = "pipesh"

// New creates a logger writing to w at the named level (debug, info, warn or
// error).
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	return log.NewWithOptions(w, log.Options{
		Prefix: Prefix,
		Level:  lvl,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
