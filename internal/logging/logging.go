// Package logging builds the leveled loggers used by the handtrack binaries.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// TimeFormat is the timestamp layout for terminal output.
const TimeFormat = "15:04:05"

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). An empty level means info.
func New(w io.Writer, level, prefix string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		lvl = parsed
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      TimeFormat,
	}), nil
}

// MustStderr returns a stderr logger, falling back to info level when level is invalid.
func MustStderr(level, prefix string) *log.Logger {
	logger, err := New(os.Stderr, level, prefix)
	if err != nil {
		logger, _ = New(os.Stderr, "", prefix)
		logger.Warn("invalid log level, using info", "err", err)
	}
	return logger
}
