// Package config loads the zerg settings using viper: an optional YAML
// file, ZERG_* environment variables and built-in defaults, in increasing
// order of precedence from defaults to explicit overrides.
package config

import (
	"encoding/binary"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"firestige.xyz/zerg/internal/core"
	"firestige.xyz/zerg/internal/log"
	"firestige.xyz/zerg/internal/pcap"
	"firestige.xyz/zerg/internal/zerg"
)

// EnvPrefix prefixes every environment override, e.g. ZERG_LOG_LEVEL.
const EnvPrefix = "ZERG"

// Gzip detection modes for capture input.
const (
	GzipAuto   = "auto"
	GzipAlways = "always"
	GzipNever  = "never"
)

// Config is the complete zerg configuration.
type Config struct {
	Log     log.LoggerConfig `mapstructure:"log"`
	Decode  DecodeConfig     `mapstructure:"decode"`
	Encode  EncodeConfig     `mapstructure:"encode"`
	Metrics MetricsConfig    `mapstructure:"metrics"`
}

// MetricsConfig controls the run counters. They are written in the
// Prometheus text format to Textfile at exit; empty disables the export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// DecodeConfig controls the capture to text direction.
type DecodeConfig struct {
	MaxRecords int    `mapstructure:"max_records"` // 0 = unlimited
	Gzip       string `mapstructure:"gzip"`        // auto | always | never
}

// EncodeConfig controls the text to capture direction: the byte order of
// the container headers and the addresses of the synthesized frames.
type EncodeConfig struct {
	ByteOrder binary.ByteOrder `mapstructure:"byte_order"` // little | big
	SnapLen   uint32           `mapstructure:"snaplen"`
	SrcMAC    net.HardwareAddr `mapstructure:"src_mac"`
	DstMAC    net.HardwareAddr `mapstructure:"dst_mac"`
	SrcIP     net.IP           `mapstructure:"src_ip"`
	DstIP     net.IP           `mapstructure:"dst_ip"`
	SrcPort   uint16           `mapstructure:"src_port"`
	TTL       uint8            `mapstructure:"ttl"`
}

// Option adjusts loading.
type Option func(v *viper.Viper)

// WithOverride sets key above every other source, e.g. from a command flag.
func WithOverride(key string, value interface{}) Option {
	return func(v *viper.Viper) {
		v.Set(key, value)
	}
}

// Load reads the configuration. An empty path skips the file.
func Load(path string, opts ...Option) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for _, opt := range opts {
		opt(v)
	}

	var cfg Config
	if err := decode(v.AllSettings(), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	logDefaults := log.DefaultConfig()
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.format", logDefaults.Format)
	v.SetDefault("log.pattern", logDefaults.Pattern)
	v.SetDefault("log.time", logDefaults.Time)
	v.SetDefault("log.file.filename", "")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("decode.max_records", 0)
	v.SetDefault("decode.gzip", GzipAuto)

	v.SetDefault("encode.byte_order", "little")
	v.SetDefault("encode.snaplen", pcap.DefaultSnapLen)
	v.SetDefault("encode.src_mac", "02:00:00:00:00:01")
	v.SetDefault("encode.dst_mac", "02:00:00:00:00:02")
	v.SetDefault("encode.src_ip", "192.0.2.1")
	v.SetDefault("encode.dst_ip", "192.0.2.2")
	v.SetDefault("encode.src_port", zerg.Port)
	v.SetDefault("encode.ttl", 64)

	v.SetDefault("metrics.textfile", "")
}

func decode(input map[string]interface{}, out *Config) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToIPHookFunc(),
			stringToHardwareAddrHook,
			stringToByteOrderHook,
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return d.Decode(input)
}

var (
	hardwareAddrType = reflect.TypeOf(net.HardwareAddr{})
	byteOrderType    = reflect.TypeOf((*binary.ByteOrder)(nil)).Elem()
)

func stringToHardwareAddrHook(f, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String || t != hardwareAddrType {
		return data, nil
	}
	return net.ParseMAC(data.(string))
}

func stringToByteOrderHook(f, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String || t != byteOrderType {
		return data, nil
	}
	return ParseByteOrder(data.(string))
}

// ParseByteOrder accepts little/le and big/be, case-insensitively.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "little", "le", "little-endian":
		return binary.LittleEndian, nil
	case "big", "be", "big-endian":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("invalid byte order %q (must be little/big): %w", s, core.ErrConfigInvalid)
	}
}

// Validate checks every field a run depends on.
func (cfg *Config) Validate() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error): %w", cfg.Log.Level, core.ErrConfigInvalid)
	}
	if cfg.Log.Format != log.FormatPattern && cfg.Log.Format != log.FormatJSON {
		return fmt.Errorf("invalid log format: %s (must be pattern/json): %w", cfg.Log.Format, core.ErrConfigInvalid)
	}

	if cfg.Decode.MaxRecords < 0 {
		return fmt.Errorf("decode.max_records must not be negative: %w", core.ErrConfigInvalid)
	}
	switch cfg.Decode.Gzip {
	case GzipAuto, GzipAlways, GzipNever:
	default:
		return fmt.Errorf("invalid decode.gzip: %s (must be auto/always/never): %w", cfg.Decode.Gzip, core.ErrConfigInvalid)
	}

	enc := &cfg.Encode
	if enc.ByteOrder == nil {
		return fmt.Errorf("encode.byte_order is required: %w", core.ErrConfigInvalid)
	}
	if enc.SnapLen == 0 {
		return fmt.Errorf("encode.snaplen must be positive: %w", core.ErrConfigInvalid)
	}
	if len(enc.SrcMAC) != 6 || len(enc.DstMAC) != 6 {
		return fmt.Errorf("encode.src_mac and encode.dst_mac must be 48-bit MAC addresses: %w", core.ErrConfigInvalid)
	}
	if enc.SrcIP.To4() == nil || enc.DstIP.To4() == nil {
		return fmt.Errorf("encode.src_ip and encode.dst_ip must be IPv4 addresses: %w", core.ErrConfigInvalid)
	}
	if enc.TTL == 0 {
		return fmt.Errorf("encode.ttl must be positive: %w", core.ErrConfigInvalid)
	}

	if cfg.Metrics.Textfile != "" && !strings.HasSuffix(cfg.Metrics.Textfile, ".prom") {
		return fmt.Errorf("metrics.textfile must end in .prom: %w", core.ErrConfigInvalid)
	}
	return nil
}
