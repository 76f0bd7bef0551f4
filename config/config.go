// Package config loads fellowmatch.yaml.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	DriverPebble = "pebble"
	DriverSQLite = "sqlite"

	envPrefix = "FELLOWMATCH_"
)

// Config holds all fellowmatch configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Journal     JournalConfig     `yaml:"journal"`
	Outbox      OutboxConfig      `yaml:"outbox"`
	Snapshots   SnapshotConfig    `yaml:"snapshots"`
	GRPC        GRPCConfig        `yaml:"grpc"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Broadcaster BroadcasterConfig `yaml:"broadcaster"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// StoreConfig selects where applications, rankings and matches live.
type StoreConfig struct {
	Driver     string `yaml:"driver"` // pebble, sqlite
	PebbleDir  string `yaml:"pebble_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

type JournalConfig struct {
	Dir             string `yaml:"dir"`
	SegmentSize     int64  `yaml:"segment_size"`
	SyncEveryAppend bool   `yaml:"sync_every_append"`
}

type OutboxConfig struct {
	Dir string `yaml:"dir"`
}

type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// BroadcasterConfig configures delivery of matching events to Kafka.
type BroadcasterConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Client         string   `yaml:"client"` // kafka-go, sarama
	Brokers        []string `yaml:"brokers"`
	Topic          string   `yaml:"topic"`
	Interval       string   `yaml:"interval"`
	MaxRetries     uint32   `yaml:"max_retries"`
	PublishTimeout string   `yaml:"publish_timeout"`
	// RetryBackoff is the minimum wait before a failed event is retried.
	RetryBackoff string `yaml:"retry_backoff"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:     DriverPebble,
			PebbleDir:  "data/store",
			SQLitePath: "data/portal.db",
		},
		Journal: JournalConfig{
			Dir:         "data/journal",
			SegmentSize: 4 << 20,
		},
		Outbox:    OutboxConfig{Dir: "data/outbox"},
		Snapshots: SnapshotConfig{Dir: "data/snapshots"},
		GRPC:      GRPCConfig{Addr: ":50051"},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Broadcaster: BroadcasterConfig{
			Client:         "kafka-go",
			Brokers:        []string{"localhost:9092"},
			Topic:          "fellowship.matches",
			Interval:       "2s",
			MaxRetries:     5,
			PublishTimeout: "5s",
			RetryBackoff:   "30s",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrap(err, "read config")
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write config")
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(envPrefix + "STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(envPrefix + "PEBBLE_DIR"); v != "" {
		c.Store.PebbleDir = v
	}
	if v := os.Getenv(envPrefix + "SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv(envPrefix + "GRPC_ADDR"); v != "" {
		c.GRPC.Addr = v
	}
	if v := os.Getenv(envPrefix + "METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv(envPrefix + "KAFKA_BROKERS"); v != "" {
		c.Broadcaster.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv(envPrefix + "KAFKA_TOPIC"); v != "" {
		c.Broadcaster.Topic = v
	}
	if v := os.Getenv(envPrefix + "BROADCASTER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Broadcaster.Enabled = b
		}
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPebble, DriverSQLite:
	default:
		return errors.Newf("unknown store driver %q (valid: %s, %s)", c.Store.Driver, DriverPebble, DriverSQLite)
	}
	if c.Broadcaster.Enabled && len(c.Broadcaster.Brokers) == 0 {
		return errors.New("broadcaster enabled without brokers")
	}
	return nil
}

func (c *Config) BroadcastInterval() time.Duration {
	return parseDuration(c.Broadcaster.Interval, 2*time.Second)
}

func (c *Config) PublishTimeout() time.Duration {
	return parseDuration(c.Broadcaster.PublishTimeout, 5*time.Second)
}

func (c *Config) RetryBackoff() time.Duration {
	return parseDuration(c.Broadcaster.RetryBackoff, 30*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
