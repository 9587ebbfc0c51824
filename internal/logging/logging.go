// Package logging builds the process slog handler.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatAuto   = "auto"
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// NewHandler returns a colorized tint handler for "pretty", a JSON handler
// for "json", and for "auto" (or anything else) picks tint when out is a
// terminal.
func NewHandler(out io.Writer, format string, level slog.Leveler) slog.Handler {
	switch format {
	case FormatPretty:
		return newPretty(out, level, !isTerminal(out))
	case FormatJSON:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	default:
		if isTerminal(out) {
			return newPretty(out, level, false)
		}
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}
}

// Setup installs a handler on os.Stdout as the slog default and returns the logger.
func Setup(format string, level slog.Leveler) *slog.Logger {
	logger := slog.New(NewHandler(os.Stdout, format, level))
	slog.SetDefault(logger)
	return logger
}

func newPretty(out io.Writer, level slog.Leveler, noColor bool) slog.Handler {
	return tint.NewHandler(out, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
