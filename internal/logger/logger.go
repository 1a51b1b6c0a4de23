// Package logger provides process-wide structured logging for the chatbot.
// Messages are written as JSON lines by zerolog, or as human readable lines
// when pretty output is enabled. Verbose mode lowers the level to debug.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	pretty  bool
	level             = zerolog.InfoLevel
	output  io.Writer = os.Stderr
	log     zerolog.Logger
)

func init() {
	rebuild()
}

// Config configures the process logger.
type Config struct {
	// Level is a zerolog level name (debug, info, warn, error). Empty means info.
	Level string

	// Pretty enables console output instead of JSON.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Init applies cfg to the process logger.
func Init(cfg Config) error {
	lvl := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		lvl = parsed
	}

	mu.Lock()
	defer mu.Unlock()
	level = lvl
	pretty = cfg.Pretty
	if cfg.Output != nil {
		output = cfg.Output
	}
	rebuild()
	return nil
}

// rebuild must be called with mu held for writing.
func rebuild() {
	w := output
	if pretty {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	lvl := level
	if verbose && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}
	log = zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "chatbot").Logger()
}

// SetVerbose enables or disables debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	rebuild()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// L returns the process logger for structured fields.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// Component returns a child logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return L().With().Str("component", name).Logger()
}

// Debug logs a message at debug level.
func Debug(format string, args ...any) {
	L().Debug().Msgf(format, args...)
}

// Section logs a section marker at debug level.
func Section(name string) {
	L().Debug().Str("section", name).Msg("=== " + name + " ===")
}

// Info logs an informational message.
func Info(format string, args ...any) {
	L().Info().Msgf(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	L().Warn().Msgf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	L().Error().Msgf(format, args...)
}
