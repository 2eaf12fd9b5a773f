package core

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once          sync.Once
	defaultLogger *log.Logger
)

// Logger returns the process-wide logger, creating it on first use.
func Logger() *log.Logger {
	once.Do(func() {
		defaultLogger = NewLogger(os.Stderr, "r3d", "info")
	})
	return defaultLogger
}

// NewLogger builds a timestamped logger writing to w. level is one of
// debug, info, warn or error; anything else means info.
func NewLogger(w io.Writer, prefix, level string) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps a config level name to a log level.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// SetLogger replaces the process-wide logger.
func SetLogger(l *log.Logger) {
	once.Do(func() {})
	defaultLogger = l
}

// The Log* helpers write a message with alternating key/value fields to the
// process logger.
func LogDebug(msg string, keyvals ...interface{}) { Logger().Debug(msg, keyvals...) }
func LogInfo(msg string, keyvals ...interface{})  { Logger().Info(msg, keyvals...) }
func LogWarn(msg string, keyvals ...interface{})  { Logger().Warn(msg, keyvals...) }
func LogError(msg string, keyvals ...interface{}) { Logger().Error(msg, keyvals...) }
