// Package logger provides the global zerolog logger for dockypody.
//
// Console output is human-readable; the optional log file (rotated by
// lumberjack) receives JSON.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger

	// fileWriter is the file output for logging (with rotation)
	fileWriter *lumberjack.Logger

	// logContext holds service/node context for log entries (optional, may be empty)
	logContext   logContextData
	logContextMu sync.RWMutex
)

// logContextData holds optional service and node context for log entries.
type logContextData struct {
	Service string
	Node    string
}

// SetContext sets service and node context for all subsequent log entries.
// Pass empty strings to clear. Thread-safe.
func SetContext(service, node string) {
	logContextMu.Lock()
	defer logContextMu.Unlock()
	logContext = logContextData{
		Service: service,
		Node:    node,
	}
}

// ClearContext clears the service/node context.
func ClearContext() {
	SetContext("", "")
}

func getContext() logContextData {
	logContextMu.RLock()
	defer logContextMu.RUnlock()
	return logContext
}

// addContext adds service/node fields to an event if set.
func addContext(event *zerolog.Event) *zerolog.Event {
	ctx := getContext()
	if ctx.Service != "" {
		event = event.Str("service", ctx.Service)
	}
	if ctx.Node != "" {
		event = event.Str("node", ctx.Node)
	}
	return event
}

// LoggingConfig holds configuration for file-based logging.
type LoggingConfig struct {
	FileEnabled *bool
	MaxSizeMB   int
	MaxAgeDays  int
	MaxBackups  int
}

// IsFileEnabled returns whether file logging is enabled.
// Defaults to true if not explicitly set.
func (c *LoggingConfig) IsFileEnabled() bool {
	if c.FileEnabled == nil {
		return true
	}
	return *c.FileEnabled
}

// GetMaxSizeMB returns the max size in MB, defaulting to 50 if not set.
func (c *LoggingConfig) GetMaxSizeMB() int {
	if c.MaxSizeMB <= 0 {
		return 50
	}
	return c.MaxSizeMB
}

// GetMaxAgeDays returns the max age in days, defaulting to 7 if not set.
func (c *LoggingConfig) GetMaxAgeDays() int {
	if c.MaxAgeDays <= 0 {
		return 7
	}
	return c.MaxAgeDays
}

// GetMaxBackups returns the max backups, defaulting to 3 if not set.
func (c *LoggingConfig) GetMaxBackups() int {
	if c.MaxBackups <= 0 {
		return 3
	}
	return c.MaxBackups
}

// Init initializes the global logger with the specified configuration.
// This initializes console-only logging. Use InitWithFile for file logging.
func Init(debug bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	Log = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// InitWithFile initializes the logger with optional file output.
// If logsDir is empty or cfg indicates file logging is disabled,
// this behaves like Init (console-only).
func InitWithFile(debug bool, logsDir string, cfg *LoggingConfig) error {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	}

	if logsDir == "" || cfg == nil || !cfg.IsFileEnabled() {
		Log = zerolog.New(consoleWriter).
			Level(level).
			With().
			Timestamp().
			Logger()
		return nil
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	logPath := filepath.Join(logsDir, "dockypody.log")

	fileWriter = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.GetMaxSizeMB(),
		MaxAge:     cfg.GetMaxAgeDays(),
		MaxBackups: cfg.GetMaxBackups(),
		LocalTime:  true,
		Compress:   false,
	}

	// Console uses human-readable format, file uses JSON
	multi := io.MultiWriter(consoleWriter, fileWriter)

	Log = zerolog.New(multi).
		Level(level).
		With().
		Timestamp().
		Logger()

	return nil
}

// CloseFileWriter closes the file writer if it exists.
// Call this on program shutdown for clean log file closure.
func CloseFileWriter() error {
	if fileWriter != nil {
		err := fileWriter.Close()
		fileWriter = nil // Prevent double-close and writes to closed file
		return err
	}
	return nil
}

// GetLogFilePath returns the path to the current log file, or empty string if file logging is disabled.
func GetLogFilePath() string {
	if fileWriter != nil {
		return fileWriter.Filename
	}
	return ""
}

// Debug logs a debug message
func Debug() *zerolog.Event {
	return addContext(Log.Debug())
}

// Info logs an info message
func Info() *zerolog.Event {
	return addContext(Log.Info())
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	return addContext(Log.Warn())
}

// Error logs an error message
func Error() *zerolog.Event {
	return addContext(Log.Error())
}
