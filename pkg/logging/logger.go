package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes operational logs to a rotating file under the project's
// .workshop directory. User-facing output goes to stdout separately; the log
// file is for diagnostics only.
type Logger struct {
	logger   *log.Logger
	jsonMode bool
}

// New creates a logger writing to <dir>/workshop.log with rotation.
// Set WORKSHOP_JSON_LOGS=1 for JSON-formatted entries.
func New(dir string) *Logger {
	if dir == "" {
		dir = ".workshop"
	}
	_ = os.MkdirAll(dir, 0755)

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "workshop.log"),
		MaxSize:    15, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	l := &Logger{
		logger: log.New(logFile, "", log.LstdFlags),
	}
	if os.Getenv("WORKSHOP_JSON_LOGS") == "1" {
		l.jsonMode = true
	}
	return l
}

// Log writes a general message to the log file only.
func (l *Logger) Log(message string) {
	if l.jsonMode {
		_ = json.NewEncoder(l.logger.Writer()).Encode(map[string]any{"level": "info", "msg": message})
		return
	}
	l.logger.Print(message)
}

// Logf writes a formatted message to the log file only.
func (l *Logger) Logf(format string, v ...interface{}) {
	if l.jsonMode {
		l.Log(fmt.Sprintf(format, v...))
		return
	}
	l.logger.Printf(format, v...)
}

// LogError records an error without interrupting the operation.
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	if l.jsonMode {
		_ = json.NewEncoder(l.logger.Writer()).Encode(map[string]any{"level": "error", "error": err.Error()})
		return
	}
	l.logger.Printf("Error: %s", err)
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if logFile, ok := l.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}
