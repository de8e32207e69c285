// Package logger provides levelled console logging for idlekit.
// Debug, Info and Section lines appear only in verbose mode (--verbose).
// Warnings and errors always print and are passed to the hook.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level prefixes used on every line.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	hook    func(level, message string)
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetHook registers a function that receives every warning and error
// after it is printed. Pass nil to remove it.
func SetHook(fn func(level, message string)) {
	mu.Lock()
	defer mu.Unlock()
	hook = fn
}

// Debug prints in verbose mode.
func Debug(format string, args ...any) {
	printVerbose("[" + LevelDebug + "] " + fmt.Sprintf(format, args...))
}

// Info prints in verbose mode.
func Info(format string, args ...any) {
	printVerbose("[" + LevelInfo + "] " + fmt.Sprintf(format, args...))
}

// Section prints a section header in verbose mode.
func Section(name string) {
	printVerbose("\n=== " + name + " ===")
}

// Warn always prints.
func Warn(format string, args ...any) {
	emit(LevelWarn, fmt.Sprintf(format, args...))
}

// Error always prints.
func Error(format string, args ...any) {
	emit(LevelError, fmt.Sprintf(format, args...))
}

func printVerbose(line string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintln(output, line)
	}
}

// emit releases the lock before calling the hook, so the hook may log.
func emit(level, msg string) {
	mu.RLock()
	fmt.Fprintf(output, "[%s] %s\n", level, msg)
	fn := hook
	mu.RUnlock()

	if fn != nil {
		fn(level, msg)
	}
}
