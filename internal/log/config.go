package log

const (
	FormatPattern = "pattern"
	FormatJSON    = "json"

	DefaultPattern = "%time [%level] %msg %field\n"
	DefaultTime    = "2006-01-02 15:04:05.000"
)

// LoggerConfig selects the level, the line format and the outputs. The
// console output is always stderr; File adds a rotating log file.
type LoggerConfig struct {
	Level   string          `mapstructure:"level"`
	Format  string          `mapstructure:"format"`
	Pattern string          `mapstructure:"pattern"`
	Time    string          `mapstructure:"time"`
	File    FileAppenderOpt `mapstructure:"file"`
}

// DefaultConfig logs info and above to stderr with the default pattern.
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Level:   "info",
		Format:  FormatPattern,
		Pattern: DefaultPattern,
		Time:    DefaultTime,
	}
}
