// Package logging configures the process-wide slog logger. Records go to
// stderr and to any attached sinks, such as the GUI log viewer.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config selects the log level and output format
type Config struct {
	Level  string // debug, info, warn or error
	Format string // text or json
}

var (
	level  = new(slog.LevelVar)
	output = NewTee(os.Stderr)
)

// New creates a logger for cfg and makes it the slog default
func New(cfg Config) *slog.Logger {
	return NewWithWriter(cfg, output)
}

// NewWithWriter creates a logger writing to w and makes it the slog default
func NewWithWriter(cfg Config, w io.Writer) *slog.Logger {
	level.Set(ParseLevel(cfg.Level))

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// SetLevel changes the level of every logger created by this package
func SetLevel(s string) {
	level.Set(ParseLevel(s))
}

// Level returns the current level
func Level() slog.Level {
	return level.Level()
}

// Output returns the shared writer behind New
func Output() *Tee {
	return output
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Tee copies writes to a primary writer and to attached sinks. Sink errors
// are ignored.
type Tee struct {
	primary io.Writer

	mu    sync.RWMutex
	sinks map[int]io.Writer
	next  int
}

// NewTee creates a tee writing to primary
func NewTee(primary io.Writer) *Tee {
	return &Tee{primary: primary, sinks: make(map[int]io.Writer)}
}

// Attach adds a sink and returns a function that detaches it
func (t *Tee) Attach(w io.Writer) func() {
	t.mu.Lock()
	id := t.next
	t.next++
	t.sinks[id] = w
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.sinks, id)
		t.mu.Unlock()
	}
}

// Write implements io.Writer
func (t *Tee) Write(p []byte) (int, error) {
	t.mu.RLock()
	for _, w := range t.sinks {
		_, _ = w.Write(p)
	}
	t.mu.RUnlock()

	if t.primary == nil {
		return len(p), nil
	}
	return t.primary.Write(p)
}
