// Package logging provides the leveled, category-based logging facility used
// throughout csync. Loggers are nil-safe: a nil *Logger silently discards all
// output, which allows library code to log unconditionally without forcing a
// logger on its callers.
package logging

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"

	"github.com/mattn/go-isatty"
)

// currentLevel is the log level gate applied to all loggers.
var currentLevel = LevelInfo

func init() {
	// Route the standard logger to standard error so that log output never
	// interleaves with command output on standard output.
	log.SetOutput(os.Stderr)

	// Disable colorized output if standard error isn't a terminal, since the
	// escape sequences would otherwise end up in redirected log files.
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}

	// Allow the level to be raised via the environment.
	if level, ok := ParseLevel(os.Getenv("CSYNC_LOG_LEVEL")); ok {
		currentLevel = level
	}
}

// SetLevel adjusts the level gate applied to all loggers. It is not safe to
// call concurrently with logging operations.
func SetLevel(level Level) {
	currentLevel = level
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. It is designed to use the
// standard logger provided by the log package, so it respects any flags set
// for that logger.
type Logger struct {
	// prefix is the dotted category prefix for the logger.
	prefix string
}

// RootLogger is the root logger from which all other loggers derive.
var RootLogger = &Logger{prefix: "csync"}

// Sublogger creates a new sublogger with the specified name appended to the
// receiver's category.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	// Compute the new prefix.
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	// Create the new logger.
	return &Logger{prefix: prefix}
}

// output is the internal logging method.
func (l *Logger) output(level Level, line string) {
	// Enforce the level gate.
	if level > currentLevel {
		return
	}

	// Add a prefix if necessary.
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}

	// Log.
	log.Output(3, line)
}

// Tracef logs low-level execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Tracef(format string, v ...interface{}) {
	if l != nil {
		l.output(LevelTrace, fmt.Sprintf(format, v...))
	}
}

// Debugf logs advanced execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil {
		l.output(LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Infof logs basic execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l != nil {
		l.output(LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a non-fatal problem with a yellow color.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l != nil {
		l.output(LevelWarn, color.YellowString(format, v...))
	}
}

// Warn logs error information with a warning prefix and yellow color.
func (l *Logger) Warn(err error) {
	if l != nil {
		l.output(LevelWarn, color.YellowString("Warning: %v", err))
	}
}

// Errorf logs a fatal problem with a red color.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l != nil {
		l.output(LevelError, color.RedString(format, v...))
	}
}

// Error logs error information with an error prefix and red color.
func (l *Logger) Error(err error) {
	if l != nil {
		l.output(LevelError, color.RedString("Error: %v", err))
	}
}
