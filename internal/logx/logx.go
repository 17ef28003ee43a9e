// Package logx configures the engine's zerolog logger. UCI owns stdout,
// so logs go to a file or to stderr, never stdout.
package logx

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to the given file path at the given level.
// An empty path logs to stderr in console format.
func New(path, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", level, err)
	}

	var w io.Writer
	if path == "" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	} else {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("open log file %s: %w", path, err)
		}
		w = f
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
