// Package logging builds the zerolog logger used across the run.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w at level. With format "auto" a terminal
// gets human-readable console output and anything else gets JSON. Every
// entry carries a run_id unique to this process.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if useConsole(w, format) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
}

func useConsole(w io.Writer, format string) bool {
	switch strings.ToLower(format) {
	case "console", "pretty":
		return true
	case "json":
		return false
	}

	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
