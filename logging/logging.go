// Package logging builds the process logger: a text handler for the
// console fanned out with a JSON handler appending to a log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// Setup returns a logger writing text to console and JSON to logFile. A nil
// console (the TUI owns the terminal) and an empty logFile each drop that
// output. The returned function closes the log file.
func Setup(console io.Writer, logFile string, level slog.Level) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	opts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, opts))
	}

	cleanup := noop
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
			return nil, noop, fmt.Errorf("logging: create directories: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, noop, fmt.Errorf("logging: open %s: %w", logFile, err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		cleanup = f.Close
	}

	switch len(handlers) {
	case 0:
		return slog.New(slog.DiscardHandler), cleanup, nil
	case 1:
		return slog.New(handlers[0]), cleanup, nil
	default:
		return slog.New(slogmulti.Fanout(handlers...)), cleanup, nil
	}
}
