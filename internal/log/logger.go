// Package log is the logging facade: a Logger interface backed by logrus,
// a pattern or JSON line format, and stderr plus an optional rotating file
// as outputs.
package log

import (
	"os"
	"sync"
)

// Fields are structured key/value pairs attached to an entry.
type Fields = map[string]interface{}

type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger

	IsDebugEnabled() bool
}

var (
	mu     sync.RWMutex
	logger Logger
	output *MultiWriter
)

// GetLogger returns the process logger. Before Init it logs at info level
// to stderr with the default pattern.
func GetLogger() Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger, output, _ = newLogrus(DefaultConfig(), os.Stderr)
	}
	return logger
}

// Init replaces the process logger with one built from cfg.
func Init(cfg LoggerConfig) error {
	l, w, err := newLogrus(cfg, os.Stderr)
	if err != nil {
		return err
	}

	mu.Lock()
	prev := output
	logger, output = l, w
	mu.Unlock()

	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Close releases the outputs of the process logger.
func Close() error {
	mu.RLock()
	w := output
	mu.RUnlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
