// Package logger provides verbose logging for the handbook CLI and server.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow index builds and searches.
// Errors are always printed.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout of console output.
const TimeFormat = "15:04:05"

var (
	mu         sync.RWMutex
	verbose    bool
	jsonOutput bool
	output     io.Writer = os.Stderr
	base                 = build(os.Stderr, false)
)

func build(w io.Writer, asJSON bool) zerolog.Logger {
	if asJSON {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: TimeFormat,
	}).With().Timestamp().Logger()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
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
	base = build(output, jsonOutput)
}

// SetJSON switches between human readable and JSON lines output.
func SetJSON(v bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOutput = v
	base = build(output, jsonOutput)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		base.Debug().Msgf(format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		base.Info().Str("section", name).Msg("=== " + name + " ===")
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		base.Info().Msgf(format, args...)
	}
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		base.Warn().Msgf(format, args...)
	}
}

// Error prints an error message regardless of verbose mode.
func Error(err error, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Error().Err(err).Msgf(format, args...)
}
