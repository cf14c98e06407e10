package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

type logrusAdapter struct {
	entry *logrus.Entry
}

// New returns a Logger writing to console and, when configured, to a
// rotating file.
func New(cfg LoggerConfig, console io.Writer) (Logger, error) {
	l, _, err := newLogrus(cfg, console)
	return l, err
}

func newLogrus(cfg LoggerConfig, console io.Writer) (Logger, *MultiWriter, error) {
	l := logrus.New()

	switch strings.ToLower(cfg.Format) {
	case "", FormatPattern:
		pattern, layout := cfg.Pattern, cfg.Time
		if pattern == "" {
			pattern = DefaultPattern
		}
		if layout == "" {
			layout = DefaultTime
		}
		l.SetFormatter(&formatter{pattern: pattern, time: layout})
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: cfg.Time})
	default:
		return nil, nil, fmt.Errorf("unsupported log format %q (must be %s or %s)", cfg.Format, FormatPattern, FormatJSON)
	}

	level := logrus.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(cfg.Level); err != nil {
			return nil, nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	l.SetLevel(level)

	w := NewMultiWriter().Add(console)
	if cfg.File.Enabled() {
		w.AddFileAppender(cfg.File)
	}
	l.SetOutput(w)

	return &logrusAdapter{entry: logrus.NewEntry(l)}, w, nil
}

func (l *logrusAdapter) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) WithField(field string, value interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}
func (l *logrusAdapter) WithFields(fields Fields) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}
func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
