package config

import (
	"encoding/binary"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"firestige.xyz/zerg/internal/core"
	"firestige.xyz/zerg/internal/pcap"
	"firestige.xyz/zerg/internal/zerg"
)

func writeConfig(t *testing.T, content map[string]interface{}) string {
	t.Helper()
	data, err := yaml.Marshal(content)
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "zerg.yml")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Log.Level != "info" || cfg.Log.Format != "pattern" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Log.File.Enabled() {
		t.Error("file appender should be disabled by default")
	}
	if cfg.Decode.MaxRecords != 0 || cfg.Decode.Gzip != GzipAuto {
		t.Errorf("unexpected decode defaults: %+v", cfg.Decode)
	}
	if cfg.Encode.ByteOrder != binary.ByteOrder(binary.LittleEndian) {
		t.Errorf("Expected little-endian default, got %v", cfg.Encode.ByteOrder)
	}
	if cfg.Encode.SnapLen != pcap.DefaultSnapLen {
		t.Errorf("Expected snaplen %d, got %d", pcap.DefaultSnapLen, cfg.Encode.SnapLen)
	}
	if cfg.Encode.SrcMAC.String() != "02:00:00:00:00:01" {
		t.Errorf("unexpected src_mac %s", cfg.Encode.SrcMAC)
	}
	if !cfg.Encode.DstIP.Equal(net.IPv4(192, 0, 2, 2)) {
		t.Errorf("unexpected dst_ip %s", cfg.Encode.DstIP)
	}
	if cfg.Encode.SrcPort != zerg.Port || cfg.Encode.TTL != 64 {
		t.Errorf("unexpected src_port/ttl: %d/%d", cfg.Encode.SrcPort, cfg.Encode.TTL)
	}
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, map[string]interface{}{
		"log": map[string]interface{}{
			"level":  "debug",
			"format": "json",
			"file": map[string]interface{}{
				"filename": "/tmp/zerg.log",
				"max_size": 10,
			},
		},
		"decode": map[string]interface{}{
			"max_records": 1000,
			"gzip":        "never",
		},
		"encode": map[string]interface{}{
			"byte_order": "big",
			"snaplen":    1500,
			"src_mac":    "aa:bb:cc:dd:ee:ff",
			"src_ip":     "10.1.2.3",
			"src_port":   5000,
			"ttl":        1,
		},
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.Log.File.Filename != "/tmp/zerg.log" || cfg.Log.File.MaxSize != 10 || cfg.Log.File.MaxBackups != 5 {
		t.Errorf("unexpected file appender config: %+v", cfg.Log.File)
	}
	if cfg.Decode.MaxRecords != 1000 || cfg.Decode.Gzip != GzipNever {
		t.Errorf("unexpected decode config: %+v", cfg.Decode)
	}
	if cfg.Encode.ByteOrder != binary.ByteOrder(binary.BigEndian) {
		t.Errorf("Expected big-endian, got %v", cfg.Encode.ByteOrder)
	}
	if cfg.Encode.SnapLen != 1500 || cfg.Encode.SrcPort != 5000 || cfg.Encode.TTL != 1 {
		t.Errorf("unexpected encode config: %+v", cfg.Encode)
	}
	if cfg.Encode.SrcMAC.String() != "aa:bb:cc:dd:ee:ff" || !cfg.Encode.SrcIP.Equal(net.IPv4(10, 1, 2, 3)) {
		t.Errorf("unexpected addresses: %s %s", cfg.Encode.SrcMAC, cfg.Encode.SrcIP)
	}
	// Untouched keys keep their defaults.
	if cfg.Encode.DstMAC.String() != "02:00:00:00:00:02" {
		t.Errorf("unexpected dst_mac %s", cfg.Encode.DstMAC)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ZERG_LOG_LEVEL", "warn")
	t.Setenv("ZERG_ENCODE_BYTE_ORDER", "BE")
	t.Setenv("ZERG_DECODE_MAX_RECORDS", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected level warn from env, got %s", cfg.Log.Level)
	}
	if cfg.Encode.ByteOrder != binary.ByteOrder(binary.BigEndian) {
		t.Errorf("Expected big-endian from env, got %v", cfg.Encode.ByteOrder)
	}
	if cfg.Decode.MaxRecords != 7 {
		t.Errorf("Expected max_records 7 from env, got %d", cfg.Decode.MaxRecords)
	}
}

func TestLoadOverrideBeatsEnv(t *testing.T) {
	t.Setenv("ZERG_LOG_LEVEL", "warn")
	cfg, err := Load("", WithOverride("log.level", "error"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Expected override level error, got %s", cfg.Log.Level)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		sub  string
		val  interface{}
	}{
		{"log level", "log", "level", "loud"},
		{"log format", "log", "format", "xml"},
		{"max records", "decode", "max_records", -1},
		{"gzip mode", "decode", "gzip", "sometimes"},
		{"byte order", "encode", "byte_order", "middle"},
		{"mac", "encode", "src_mac", "not-a-mac"},
		{"ipv6", "encode", "dst_ip", "2001:db8::1"},
		{"ttl", "encode", "ttl", 0},
		{"snaplen", "encode", "snaplen", 0},
		{"metrics textfile", "metrics", "textfile", "/tmp/zerg.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, map[string]interface{}{
				tt.key: map[string]interface{}{tt.sub: tt.val},
			})
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s=%v", tt.sub, tt.val)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestParseByteOrder(t *testing.T) {
	for _, s := range []string{"little", "LE", "Little-Endian"} {
		if o, err := ParseByteOrder(s); err != nil || o != binary.ByteOrder(binary.LittleEndian) {
			t.Errorf("ParseByteOrder(%q) = %v, %v", s, o, err)
		}
	}
	if _, err := ParseByteOrder("network"); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
}
