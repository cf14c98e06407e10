package log

import "gopkg.in/natefinch/lumberjack.v2"

// FileAppenderOpt is the log.file config section. Zero sizes and ages
// keep lumberjack's defaults: 100 MB files, every backup, no age limit.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`    // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// Enabled reports whether a log file is configured.
func (o FileAppenderOpt) Enabled() bool { return o.Filename != "" }

// AddFileAppender opens a rotating log file. It is closed by Close.
func (m *MultiWriter) AddFileAppender(o FileAppenderOpt) *MultiWriter {
	f := &lumberjack.Logger{
		Filename:   o.Filename,
		MaxSize:    o.MaxSize,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAge,
		Compress:   o.Compress,
	}
	m.owned = append(m.owned, f)
	return m.Add(f)
}
