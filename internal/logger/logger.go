package logger

import (
	"sync"
)

// Log levels accepted by log.level in config.yml.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	processLogger *Logger
	once          sync.Once
)

// Get returns the process-wide logger. The level of the first call wins.
func Get(level string) *Logger {
	once.Do(func() {
		processLogger = New(level)
	})
	return processLogger
}

// New builds an independent logger, used by components and tests that
// must not share the process instance.
func New(level string) *Logger {
	return newZapLogger(level)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zapNop()}
}
