// Package debug provides debug logging functionality using log/slog
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New returns a logger that writes debug-level text records to w when enabled
// is true. A disabled logger discards everything.
func New(enabled bool, w io.Writer) *slog.Logger {
	if !enabled {
		return Discard()
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// Discard returns a logger that drops all records.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 1, // higher than any actual level
	}))
}

// Enabled reports whether l emits debug records.
func Enabled(l *slog.Logger) bool {
	return l != nil && l.Enabled(context.Background(), slog.LevelDebug)
}
