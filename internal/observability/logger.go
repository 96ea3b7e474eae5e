package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger: JSON in production environments,
// text everywhere else.
func NewLogger(environment string) *slog.Logger {
	return newLogger(environment, os.Stdout)
}

// NoOpLogger discards everything; used in tests.
var NoOpLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newLogger(environment string, w io.Writer) *slog.Logger {
	var handler slog.Handler
	switch strings.ToLower(environment) {
	case "production", "prod", "staging":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
