// Package config handles configuration loading using viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"firestige.xyz/wardriver/internal/capture"
	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/core/decoder"
	"firestige.xyz/wardriver/internal/log"
	"firestige.xyz/wardriver/internal/sink/kafka"
)

// EnvPrefix is the environment prefix: wardriver.gps.device → WARDRIVER_GPS_DEVICE.
const EnvPrefix = "WARDRIVER"

// Config is the complete runtime configuration.
// Maps to the `wardriver:` root key in YAML.
type Config struct {
	Interface string        `mapstructure:"interface" yaml:"interface"`
	Monitor   MonitorConfig `mapstructure:"monitor" yaml:"monitor"`
	Capture   CaptureConfig `mapstructure:"capture" yaml:"capture"`
	GPS       GPSConfig     `mapstructure:"gps" yaml:"gps"`
	Batch     BatchConfig   `mapstructure:"batch" yaml:"batch"`
	Output    OutputConfig  `mapstructure:"output" yaml:"output"`
	Log       log.Config    `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ─── Monitor mode ───

// MonitorConfig controls airmon-ng setup and channel selection.
type MonitorConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"` // false = capture on interface as is
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Channels    []int         `mapstructure:"channels" yaml:"channels"` // more than one enables hopping
	HopInterval time.Duration `mapstructure:"hop_interval" yaml:"hop_interval"`
}

// ─── Capture ───

// CaptureConfig selects the frame source.
type CaptureConfig struct {
	Source          string         `mapstructure:"source" yaml:"source"` // pcap | afpacket | file
	File            string         `mapstructure:"file" yaml:"file"`     // recording for source=file
	SnapLen         int            `mapstructure:"snap_len" yaml:"snap_len"`
	ReadTimeout     time.Duration  `mapstructure:"read_timeout" yaml:"read_timeout"`
	Filter          string         `mapstructure:"filter" yaml:"filter"`
	Tags            []int          `mapstructure:"tags" yaml:"tags"` // tagged parameter IDs to keep
	ChannelCapacity int            `mapstructure:"channel_capacity" yaml:"channel_capacity"`
	Options         map[string]any `mapstructure:"options" yaml:"options,omitempty"` // source specific
}

// TagSet returns the configured tag IDs. Call after Validate.
func (c CaptureConfig) TagSet() decoder.TagSet {
	var s decoder.TagSet
	for _, t := range c.Tags {
		s.Add(uint8(t))
	}
	return s
}

// ─── GPS ───

// GPSConfig configures the serial NMEA receiver.
type GPSConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Device       string        `mapstructure:"device" yaml:"device"`
	BaudRate     int           `mapstructure:"baud_rate" yaml:"baud_rate"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	OpenAttempts int           `mapstructure:"open_attempts" yaml:"open_attempts"`
	OpenDelay    time.Duration `mapstructure:"open_delay" yaml:"open_delay"`
}

// ─── Batching & output ───

type BatchConfig struct {
	Size int `mapstructure:"size" yaml:"size"`
}

// OutputConfig lists the sighting sinks. The file sink is always on.
type OutputConfig struct {
	Path          string        `mapstructure:"path" yaml:"path"`
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval"`
	Console       bool          `mapstructure:"console" yaml:"console"`
	Kafka         KafkaConfig   `mapstructure:"kafka" yaml:"kafka"`
}

type KafkaConfig struct {
	Enabled      bool `mapstructure:"enabled" yaml:"enabled"`
	kafka.Config `mapstructure:",squash" yaml:",inline"`
}

// ─── Metrics ───

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `wardriver: ...`.
type configRoot struct {
	Wardriver Config `mapstructure:"wardriver" yaml:"wardriver"`
}

// Load loads configuration from file, applying defaults and WARDRIVER_* overrides.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

// LoadOrDefault is Load, except that a missing file (or empty path) yields
// the defaults with environment overrides.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	return load("")
}

func load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// key "wardriver.gps.device" → env "WARDRIVER_GPS_DEVICE"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Wardriver

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides apply to all of them.
func setDefaults(v *viper.Viper) {
	d := Default()
	set := func(key string, value any) { v.SetDefault("wardriver."+key, value) }

	set("interface", d.Interface)

	set("monitor.enabled", d.Monitor.Enabled)
	set("monitor.max_attempts", d.Monitor.MaxAttempts)
	set("monitor.retry_delay", d.Monitor.RetryDelay)
	set("monitor.channels", d.Monitor.Channels)
	set("monitor.hop_interval", d.Monitor.HopInterval)

	set("capture.source", d.Capture.Source)
	set("capture.file", d.Capture.File)
	set("capture.snap_len", d.Capture.SnapLen)
	set("capture.read_timeout", d.Capture.ReadTimeout)
	set("capture.filter", d.Capture.Filter)
	set("capture.tags", d.Capture.Tags)
	set("capture.channel_capacity", d.Capture.ChannelCapacity)

	set("gps.enabled", d.GPS.Enabled)
	set("gps.device", d.GPS.Device)
	set("gps.baud_rate", d.GPS.BaudRate)
	set("gps.read_timeout", d.GPS.ReadTimeout)
	set("gps.open_attempts", d.GPS.OpenAttempts)
	set("gps.open_delay", d.GPS.OpenDelay)

	set("batch.size", d.Batch.Size)

	set("output.path", d.Output.Path)
	set("output.flush_interval", d.Output.FlushInterval)
	set("output.console", d.Output.Console)
	set("output.kafka.enabled", d.Output.Kafka.Enabled)
	set("output.kafka.brokers", d.Output.Kafka.Brokers)
	set("output.kafka.topic", d.Output.Kafka.Topic)
	set("output.kafka.batch_size", d.Output.Kafka.BatchSize)
	set("output.kafka.batch_timeout", d.Output.Kafka.BatchTimeout)
	set("output.kafka.compression", d.Output.Kafka.Compression)
	set("output.kafka.max_attempts", d.Output.Kafka.MaxAttempts)

	set("log.level", d.Log.Level)
	set("log.pattern", d.Log.Pattern)
	set("log.time", d.Log.Time)
	set("log.file.enabled", d.Log.File.Enabled)
	set("log.file.filename", d.Log.File.Filename)
	set("log.file.max_size", d.Log.File.MaxSize)
	set("log.file.max_backups", d.Log.File.MaxBackups)
	set("log.file.max_age", d.Log.File.MaxAge)
	set("log.file.compress", d.Log.File.Compress)

	set("metrics.enabled", d.Metrics.Enabled)
	set("metrics.listen", d.Metrics.Listen)
	set("metrics.path", d.Metrics.Path)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Interface: "wlan1",
		Monitor: MonitorConfig{
			Enabled:     true,
			MaxAttempts: 5,
			RetryDelay:  5 * time.Second,
			Channels:    []int{1},
			HopInterval: 250 * time.Millisecond,
		},
		Capture: CaptureConfig{
			Source:          "pcap",
			SnapLen:         65535,
			ReadTimeout:     100 * time.Millisecond,
			Filter:          capture.ManagementFilter,
			Tags:            []int{int(core.TagSSID)},
			ChannelCapacity: 1024,
		},
		GPS: GPSConfig{
			Enabled:      true,
			Device:       "/dev/serial0",
			BaudRate:     9600,
			ReadTimeout:  time.Second,
			OpenAttempts: 5,
			OpenDelay:    5 * time.Second,
		},
		Batch: BatchConfig{Size: 20},
		Output: OutputConfig{
			Path:          "log.txt",
			FlushInterval: time.Second,
			Kafka: KafkaConfig{Config: kafka.Config{
				Brokers:      []string{},
				Topic:        "wardriver-sightings",
				BatchSize:    100,
				BatchTimeout: 100 * time.Millisecond,
				Compression:  "snappy",
				MaxAttempts:  3,
			}},
		},
		Log: log.Config{
			Level:   "info",
			Pattern: log.DefaultPattern,
			Time:    log.DefaultTime,
			File: log.FileConfig{
				Filename:   "/var/log/wardriver/wardriver.log",
				MaxSize:    100,
				MaxBackups: 5,
				MaxAge:     30,
				Compress:   true,
			},
		},
		Metrics: MetricsConfig{
			Listen: ":9091",
			Path:   "/metrics",
		},
	}
}

// Example renders the default configuration as YAML.
func Example() ([]byte, error) {
	return yaml.Marshal(configRoot{Wardriver: Default()})
}

// ─── Validation ───

var (
	validLevels  = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
	validSources = []string{"pcap", "afpacket", "file"}
	validCodecs  = []string{"none", "gzip", "snappy", "lz4"}
)

// Validate reports every problem found, each wrapping core.ErrConfigInvalid.
func (cfg *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{core.ErrConfigInvalid}, args...)...))
	}

	if !slices.Contains(validLevels, strings.ToLower(cfg.Log.Level)) {
		fail("log.level %q (must be one of %s)", cfg.Log.Level, strings.Join(validLevels, "/"))
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Filename == "" {
		fail("log.file.filename is required when log.file.enabled=true")
	}

	c := cfg.Capture
	if !slices.Contains(validSources, c.Source) {
		fail("capture.source %q (must be one of %s)", c.Source, strings.Join(validSources, "/"))
	}
	if c.Source == "file" {
		if c.File == "" {
			fail("capture.file is required when capture.source=file")
		}
	} else if cfg.Interface == "" {
		fail("interface is required for capture.source=%s", c.Source)
	}
	if c.SnapLen <= 0 {
		fail("capture.snap_len must be positive")
	}
	if c.ReadTimeout <= 0 {
		fail("capture.read_timeout must be positive")
	}
	if c.ChannelCapacity <= 0 {
		fail("capture.channel_capacity must be positive")
	}
	if len(c.Tags) == 0 {
		fail("capture.tags must list at least one tag id")
	}
	for _, t := range c.Tags {
		if t < 0 || t > 255 {
			fail("capture.tags: %d is not a tag id (0-255)", t)
		}
	}
	if !slices.Contains(c.Tags, int(core.TagSSID)) {
		fail("capture.tags must include the SSID tag (0)")
	}

	if m := cfg.Monitor; m.Enabled {
		if m.MaxAttempts < 1 {
			fail("monitor.max_attempts must be at least 1")
		}
		if m.RetryDelay < 0 {
			fail("monitor.retry_delay must not be negative")
		}
		for _, ch := range m.Channels {
			if ch < 1 || ch > 196 {
				fail("monitor.channels: %d is not a valid channel", ch)
			}
		}
		if len(m.Channels) > 1 && m.HopInterval <= 0 {
			fail("monitor.hop_interval must be positive when hopping")
		}
		if c.Source == "file" {
			fail("monitor.enabled requires a live capture source")
		}
	}

	if g := cfg.GPS; g.Enabled {
		if g.Device == "" {
			fail("gps.device is required when gps.enabled=true")
		}
		if g.BaudRate <= 0 {
			fail("gps.baud_rate must be positive")
		}
		if g.ReadTimeout <= 0 {
			fail("gps.read_timeout must be positive")
		}
		if g.OpenAttempts < 1 {
			fail("gps.open_attempts must be at least 1")
		}
	}

	if cfg.Batch.Size <= 0 {
		fail("batch.size must be positive")
	}

	o := cfg.Output
	if o.Path == "" {
		fail("output.path is required")
	}
	if o.FlushInterval <= 0 {
		fail("output.flush_interval must be positive")
	}
	if o.Kafka.Enabled {
		if len(o.Kafka.Brokers) == 0 {
			fail("output.kafka.brokers is required when output.kafka.enabled=true")
		}
		if o.Kafka.Topic == "" {
			fail("output.kafka.topic is required when output.kafka.enabled=true")
		}
		if !slices.Contains(validCodecs, o.Kafka.Compression) {
			fail("output.kafka.compression %q (must be one of %s)", o.Kafka.Compression, strings.Join(validCodecs, "/"))
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		fail("metrics.listen is required when metrics.enabled=true")
	}

	return errors.Join(errs...)
}
