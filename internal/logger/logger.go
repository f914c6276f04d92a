package logger

import (
	"fmt"
	"io"
	"kiosk/internal/config"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
// Children created with Named share the parent's writers.
type Logger struct {
	core      *core
	component string
}

type core struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	logDir     string
	files      []*os.File
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	c := &core{logDir: config.LogDirectory}
	c.setupLoggers()
	return &Logger{core: c}
}

// setupLoggers initializes writers and per-level loggers.
func (c *core) setupLoggers() {
	infoWriter := io.MultiWriter(os.Stdout, c.openLogFile(InfoFile))
	warningWriter := io.MultiWriter(os.Stdout, c.openLogFile(WarningFile))
	errorWriter := io.MultiWriter(os.Stderr, c.openLogFile(ErrorFile))

	c.infoLog = log.New(infoWriter, "ℹ️  INFO    ", log.Ldate|log.Ltime)
	c.warningLog = log.New(warningWriter, "⚠️  WARNING ", log.Ldate|log.Ltime)
	c.errorLog = log.New(errorWriter, "❌ ERROR   ", log.Ldate|log.Ltime)
}

// openLogFile opens or creates a log file for appending.
func (c *core) openLogFile(name string) *os.File {
	filename := filepath.Join(c.logDir, name)
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file %s: %v", filename, err)
	}
	c.files = append(c.files, file)
	return file
}

// Named returns a child logger whose messages are tagged with component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{core: l.core, component: component}
}

// Dir returns the directory holding the log files.
func (l *Logger) Dir() string {
	return l.core.logDir
}

func (l *Logger) write(target *log.Logger, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if l.component != "" {
		msg = "[" + l.component + "] " + msg
	}

	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	target.Output(3, msg)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.write(l.core.infoLog, format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.write(l.core.warningLog, format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.write(l.core.errorLog, format, v...)
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	filePath := filepath.Join(l.core.logDir, filepath.Base(fileName))

	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	if err := os.Truncate(filePath, 0); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", fileName, err)
	}
	return nil
}

// Close closes the underlying log files.
func (l *Logger) Close() error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	var firstErr error
	for _, f := range l.core.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.core.files = nil
	return firstErr
}
