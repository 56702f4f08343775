// Package logging provides Stepwise's logging setup built on charmbracelet/log.
//
// All log output goes to stderr; stdout is reserved for run output (plain
// records, NDJSON, plans). While the terminal UI owns the screen, log
// output is redirected so it does not tear the view.
//
// Usage:
//
//	// During CLI initialization (PersistentPreRun):
//	logging.Setup(verbose, quiet, jsonFormat)
//
//	// In each package:
//	var logger = logging.New("script")
//	logger.Info("loading wizard", "path", "wizards/pair.toml")
//
// Setup must be called before New: charmbracelet/log copies state into child
// loggers at creation time.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Level aliases for charmbracelet/log levels.
const (
	LevelDebug = log.DebugLevel
	LevelInfo  = log.InfoLevel
	LevelWarn  = log.WarnLevel
	LevelError = log.ErrorLevel
)

// Setup configures the global logging defaults. verbose selects Debug,
// quiet selects Error and wins over verbose. jsonFormat switches to NDJSON
// output.
func Setup(verbose, quiet, jsonFormat bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.ErrorLevel
	}

	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if jsonFormat {
		log.SetFormatter(log.JSONFormatter)
	} else {
		log.SetFormatter(log.TextFormatter)
	}
}

// ParseFormat maps a run.log_format value to the jsonFormat argument of
// Setup. Empty means text.
func ParseFormat(format string) (jsonFormat bool, err error) {
	switch strings.ToLower(format) {
	case "", "text":
		return false, nil
	case "json":
		return true, nil
	default:
		return false, fmt.Errorf("unknown log format %q", format)
	}
}

// New creates a logger with the given component prefix. An empty component
// produces a logger without a prefix.
func New(component string) *log.Logger {
	return log.WithPrefix(component)
}

// ForWizard returns the logger handed to an engine running the named
// wizard.
func ForWizard(name string) *log.Logger {
	return log.WithPrefix("engine").With("wizard", name)
}

// SetOutput overrides the output writer for the default logger.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Redirect points the default logger at w and returns a func restoring
// stderr. Loggers created by New or ForWizard after the call write to w.
func Redirect(w io.Writer) (restore func()) {
	log.SetOutput(w)
	return func() { log.SetOutput(os.Stderr) }
}
