// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "ALCHEMIST_LOG_LEVEL"

// Config captures options for configuring the global logger.
type Config struct {
	Level  string    // "debug", "info", ...; empty means info
	Format string    // "console", "json" or empty for auto
	Output io.Writer // defaults to os.Stderr
}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Str("service", "alchemist").Logger()
)

// Configure replaces the base logger. Safe to call again once the runtime
// config has been read.
func Configure(cfg Config) {
	level := zerolog.InfoLevel
	raw := strings.TrimSpace(os.Getenv(EnvLevel))
	if raw == "" {
		raw = strings.TrimSpace(cfg.Level)
	}
	if raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if useConsole(cfg.Format, writer) {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("service", "alchemist").
		Logger()

	mu.Lock()
	base = logger
	mu.Unlock()
}

func useConsole(format string, w io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console":
		return true
	case "json":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	l := Base()
	return l.With().Str("component", component).Logger()
}

// WithBatch returns a component logger carrying the batch identifier.
func WithBatch(component, batchID string) zerolog.Logger {
	l := WithComponent(component)
	if batchID == "" {
		return l
	}
	return l.With().Str("batch_id", batchID).Logger()
}
