package internal

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// Returns the slog level implied by the current output modes. Debug wins
// over quiet.
func LogLevel() slog.Level {
	if IsDebug() {
		return slog.LevelDebug
	}
	if IsQuiet() {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Builds the process log handler.
//
// Interactive terminals get the human-readable text format; anything else
// (journald, files, pipes) gets one JSON object per line. Verbose mode adds
// the source location of every record.
func NewLogHandler(w io.Writer, level slog.Leveler, verbose bool) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	}
	if isTerminal(w) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
