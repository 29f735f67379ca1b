package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"firestige.xyz/wardriver/internal/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wardriver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
wardriver:
  interface: wlan0
  gps:
    enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wlan0", cfg.Interface)
	assert.False(t, cfg.GPS.Enabled)
	assert.Equal(t, "/dev/serial0", cfg.GPS.Device)
	assert.Equal(t, 20, cfg.Batch.Size)
	assert.Equal(t, time.Second, cfg.Output.FlushInterval)
	assert.Equal(t, "log.txt", cfg.Output.Path)
	assert.Equal(t, 5, cfg.Monitor.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Monitor.RetryDelay)
	assert.Equal(t, []int{1}, cfg.Monitor.Channels)
	assert.Equal(t, "pcap", cfg.Capture.Source)
	assert.Equal(t, 100*time.Millisecond, cfg.Capture.ReadTimeout)
	assert.True(t, cfg.Capture.TagSet().Has(core.TagSSID))
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_ParsesDurationsAndLists(t *testing.T) {
	path := writeConfig(t, `
wardriver:
  interface: wlan1
  monitor:
    channels: [1, 6, 11]
    hop_interval: 500ms
  capture:
    tags: [0, 1, 221]
  output:
    flush_interval: 2s
    kafka:
      enabled: true
      brokers: ["k1:9092", "k2:9092"]
      topic: sightings
      compression: lz4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 6, 11}, cfg.Monitor.Channels)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.HopInterval)
	assert.Equal(t, 2*time.Second, cfg.Output.FlushInterval)
	tags := cfg.Capture.TagSet()
	assert.True(t, tags.Has(core.TagVendorSpecific))
	assert.False(t, tags.Has(core.TagDSParameterSet))
	assert.True(t, cfg.Output.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Output.Kafka.Brokers)
	assert.Equal(t, "lz4", cfg.Output.Kafka.Compression)
	assert.Equal(t, 100, cfg.Output.Kafka.BatchSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WARDRIVER_INTERFACE", "wlan7")
	t.Setenv("WARDRIVER_GPS_DEVICE", "/dev/ttyUSB0")
	t.Setenv("WARDRIVER_BATCH_SIZE", "5")

	path := writeConfig(t, "wardriver:\n  interface: wlan0\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wlan7", cfg.Interface)
	assert.Equal(t, "/dev/ttyUSB0", cfg.GPS.Device)
	assert.Equal(t, 5, cfg.Batch.Size)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Interface, cfg.Interface)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Batch.Size)
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `
wardriver:
  batch:
    size: 0
  capture:
    tags: [1]
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
	assert.Contains(t, err.Error(), "batch.size")
	assert.Contains(t, err.Error(), "SSID tag")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad source", func(c *Config) { c.Capture.Source = "usb" }, "capture.source"},
		{"file source needs path", func(c *Config) {
			c.Capture.Source = "file"
			c.Monitor.Enabled = false
		}, "capture.file"},
		{"file source without interface", func(c *Config) {
			c.Capture.Source = "file"
			c.Capture.File = "in.pcap"
			c.Monitor.Enabled = false
			c.Interface = ""
		}, ""},
		{"live source needs interface", func(c *Config) { c.Interface = "" }, "interface is required"},
		{"monitor on file source", func(c *Config) {
			c.Capture.Source = "file"
			c.Capture.File = "in.pcap"
		}, "live capture source"},
		{"tag out of range", func(c *Config) { c.Capture.Tags = []int{0, 300} }, "not a tag id"},
		{"bad channel", func(c *Config) { c.Monitor.Channels = []int{0} }, "not a valid channel"},
		{"hop without interval", func(c *Config) {
			c.Monitor.Channels = []int{1, 6}
			c.Monitor.HopInterval = 0
		}, "hop_interval"},
		{"zero attempts", func(c *Config) { c.Monitor.MaxAttempts = 0 }, "max_attempts"},
		{"gps needs device", func(c *Config) { c.GPS.Device = "" }, "gps.device"},
		{"gps disabled skips checks", func(c *Config) {
			c.GPS.Enabled = false
			c.GPS.Device = ""
		}, ""},
		{"kafka needs brokers", func(c *Config) { c.Output.Kafka.Enabled = true }, "brokers"},
		{"kafka codec", func(c *Config) {
			c.Output.Kafka.Enabled = true
			c.Output.Kafka.Brokers = []string{"k:9092"}
			c.Output.Kafka.Compression = "zstd"
		}, "compression"},
		{"output path", func(c *Config) { c.Output.Path = "" }, "output.path"},
		{"log file name", func(c *Config) {
			c.Log.File.Enabled = true
			c.Log.File.Filename = ""
		}, "log.file.filename"},
		{"metrics listen", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Listen = ""
		}, "metrics.listen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfigInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExample_LoadsBack(t *testing.T) {
	out, err := Example()
	require.NoError(t, err)

	var root map[string]any
	require.NoError(t, yaml.Unmarshal(out, &root))
	require.Contains(t, root, "wardriver")

	cfg, err := Load(writeConfig(t, string(out)))
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Output.Path, cfg.Output.Path)
	assert.Equal(t, def.Output.FlushInterval, cfg.Output.FlushInterval)
	assert.Equal(t, def.Output.Kafka.Topic, cfg.Output.Kafka.Topic)
	assert.Equal(t, def.Output.Kafka.BatchTimeout, cfg.Output.Kafka.BatchTimeout)
	assert.Equal(t, def.Log.Pattern, cfg.Log.Pattern)
	assert.Equal(t, def.Monitor, cfg.Monitor)
	assert.Equal(t, def.GPS, cfg.GPS)
}
