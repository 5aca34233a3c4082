// Package log builds the structured loggers used by the sol0 commands.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps the configuration names debug, info, warn and error to
// slog levels.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// New returns a logger writing to w. An unknown level falls back to info.
func New(level string, json bool, w io.Writer) *slog.Logger {
	lvl, err := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	l := slog.New(h)
	if err != nil {
		l.Warn("falling back to info", "err", err)
	}
	return l
}

// Discard returns a logger which drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
