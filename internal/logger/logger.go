// Package logger provides levelled logging for the CareSync CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to trace the ingestion and retrieval pipelines.
// A rotating log file can be attached with SetFile; it receives every
// message regardless of verbosity.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	FileMaxSizeMB  = 10
	FileMaxBackups = 5
	FileMaxAgeDays = 30
)

var (
	mu      sync.RWMutex
	writeMu sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
	file    io.WriteCloser
	now     = time.Now
)

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

// SetOutput sets the output writer for console logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetFile attaches a size-rotated log file at path. An empty path detaches
// and closes the current file.
func SetFile(path string) error {
	var next io.WriteCloser
	if path != "" {
		next = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    FileMaxSizeMB,
			MaxBackups: FileMaxBackups,
			MaxAge:     FileMaxAgeDays,
			Compress:   true,
		}
	}
	return setFileWriter(next)
}

// setFileWriter swaps the file sink and closes the previous one.
func setFileWriter(w io.WriteCloser) error {
	mu.Lock()
	prev := file
	file = w
	mu.Unlock()

	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Close detaches and closes the log file, if any.
func Close() error {
	return setFileWriter(nil)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	log("DEBUG", false, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	writeMu.Lock()
	defer writeMu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
	if file != nil {
		fmt.Fprintf(file, "%s === %s ===\n", now().Format(time.RFC3339), name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	log("INFO", false, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	log("WARN", false, format, args...)
}

// Error prints an error message whether or not verbose mode is enabled.
func Error(format string, args ...any) {
	log("ERROR", true, format, args...)
}

func log(level string, always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	writeMu.Lock()
	defer writeMu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if verbose || always {
		fmt.Fprintf(output, "[%s] %s\n", level, msg)
	}
	if file != nil {
		fmt.Fprintf(file, "%s [%s] %s\n", now().Format(time.RFC3339), level, msg)
	}
}
