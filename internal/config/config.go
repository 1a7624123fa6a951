// Package config loads Agrama's process configuration via Viper, layering
// a config.yaml file over built-in defaults for the store, the semantic
// and lexical indices, the session tracker, the optional cache, and the
// performance monitor's alert thresholds.
//
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete process configuration.
type Config struct {
	Profile string `mapstructure:"profile"`

	Store     StoreConfig     `mapstructure:"store"`
	Semantic  SemanticConfig  `mapstructure:"semantic"`
	Lexical   LexicalConfig   `mapstructure:"lexical"`
	Session   SessionConfig   `mapstructure:"session"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Transport TransportConfig `mapstructure:"transport"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StoreConfig configures the temporal content store.
type StoreConfig struct {
	SnapshotPath     string        `mapstructure:"snapshot_path"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
	MaxHistoryPerKey int           `mapstructure:"max_history_per_key"`
}

// SemanticConfig configures the HNSW semantic index.
type SemanticConfig struct {
	VectorDimensions int   `mapstructure:"vector_dimensions"`
	MaxConnections   int   `mapstructure:"max_connections"`
	EfConstruction   int   `mapstructure:"ef_construction"`
	MatryoshkaDims   []int `mapstructure:"matryoshka_dims"`
}

// LexicalConfig configures the BM25 lexical index.
type LexicalConfig struct {
	BM25K1 float64 `mapstructure:"bm25_k1"`
	BM25B  float64 `mapstructure:"bm25_b"`
}

// SessionConfig configures agent-session tracking.
type SessionConfig struct {
	MaxConcurrentAgents int           `mapstructure:"max_concurrent_agents"`
	IdleTimeout         time.Duration `mapstructure:"idle_seconds"`
}

// CacheConfig configures the optional result cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"cache_enabled"`
	MaxSize int  `mapstructure:"cache_max_size"`
}

// TransportConfig configures the MCP stdio loop and the optional HTTP
// metrics export.
type TransportConfig struct {
	MetricsExportEnabled bool     `mapstructure:"metrics_export_enabled"`
	MetricsExportHost    string   `mapstructure:"metrics_export_host"`
	MetricsExportPort    int      `mapstructure:"metrics_export_port"`
	CORS                 bool     `mapstructure:"cors"`
	AllowOrigins         []string `mapstructure:"allow_origins"`
}

// MonitorConfig configures the performance monitor's threshold alerts.
type MonitorConfig struct {
	AlertThresholds AlertThresholds `mapstructure:"alert_thresholds"`
}

// AlertThresholds configures the performance monitor's alert triggers.
type AlertThresholds struct {
	P99Millis   float64 `mapstructure:"p99_ms"`
	MinQPS      float64 `mapstructure:"min_qps"`
	MaxMemoryMB float64 `mapstructure:"max_memory_mb"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the built-in defaults applied before any
// config.yaml is read.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".agrama")

	return &Config{
		Profile: "default",
		Store: StoreConfig{
			SnapshotPath:     filepath.Join(configDir, "agrama.snapshot"),
			SnapshotInterval: 5 * time.Minute,
			MaxHistoryPerKey: 0,
		},
		Semantic: SemanticConfig{
			VectorDimensions: 768,
			MaxConnections:   16,
			EfConstruction:   200,
			MatryoshkaDims:   []int{64, 256, 768},
		},
		Lexical: LexicalConfig{
			BM25K1: 1.2,
			BM25B:  0.75,
		},
		Session: SessionConfig{
			MaxConcurrentAgents: 100,
			IdleTimeout:         30 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: false,
			MaxSize: 1000,
		},
		Transport: TransportConfig{
			MetricsExportEnabled: false,
			MetricsExportHost:    "localhost",
			MetricsExportPort:    7421,
			CORS:                 true,
		},
		Monitor: MonitorConfig{
			AlertThresholds: AlertThresholds{
				P99Millis:   50,
				MinQPS:      0.1,
				MaxMemoryMB: 512,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from config.yaml, searching the current
// directory, ~/.agrama, and /etc/agrama in that order, falling back to
// DefaultConfig when no file is found.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	homeDir, _ := os.UserHomeDir()
	v.AddConfigPath(filepath.Join(homeDir, ".agrama"))
	v.AddConfigPath("/etc/agrama")

	return load(v)
}

// LoadFrom reads configuration from an explicit file path, bypassing the
// search-path precedence Load uses.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("profile", d.Profile)

	v.SetDefault("store.snapshot_path", d.Store.SnapshotPath)
	v.SetDefault("store.snapshot_interval", d.Store.SnapshotInterval)
	v.SetDefault("store.max_history_per_key", d.Store.MaxHistoryPerKey)

	v.SetDefault("semantic.vector_dimensions", d.Semantic.VectorDimensions)
	v.SetDefault("semantic.max_connections", d.Semantic.MaxConnections)
	v.SetDefault("semantic.ef_construction", d.Semantic.EfConstruction)
	v.SetDefault("semantic.matryoshka_dims", d.Semantic.MatryoshkaDims)

	v.SetDefault("lexical.bm25_k1", d.Lexical.BM25K1)
	v.SetDefault("lexical.bm25_b", d.Lexical.BM25B)

	v.SetDefault("session.max_concurrent_agents", d.Session.MaxConcurrentAgents)
	v.SetDefault("session.idle_seconds", d.Session.IdleTimeout)

	v.SetDefault("cache.cache_enabled", d.Cache.Enabled)
	v.SetDefault("cache.cache_max_size", d.Cache.MaxSize)

	v.SetDefault("transport.metrics_export_enabled", d.Transport.MetricsExportEnabled)
	v.SetDefault("transport.metrics_export_host", d.Transport.MetricsExportHost)
	v.SetDefault("transport.metrics_export_port", d.Transport.MetricsExportPort)
	v.SetDefault("transport.cors", d.Transport.CORS)

	v.SetDefault("monitor.alert_thresholds.p99_ms", d.Monitor.AlertThresholds.P99Millis)
	v.SetDefault("monitor.alert_thresholds.min_qps", d.Monitor.AlertThresholds.MinQPS)
	v.SetDefault("monitor.alert_thresholds.max_memory_mb", d.Monitor.AlertThresholds.MaxMemoryMB)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate checks the configuration for internally-inconsistent values.
func (c *Config) Validate() error {
	if c.Semantic.VectorDimensions <= 0 {
		return fmt.Errorf("semantic.vector_dimensions must be > 0")
	}
	if c.Semantic.MaxConnections <= 0 {
		return fmt.Errorf("semantic.max_connections must be > 0")
	}
	for i, dim := range c.Semantic.MatryoshkaDims {
		if i > 0 && dim <= c.Semantic.MatryoshkaDims[i-1] {
			return fmt.Errorf("semantic.matryoshka_dims must be strictly ascending")
		}
		if dim > c.Semantic.VectorDimensions {
			return fmt.Errorf("semantic.matryoshka_dims entries must not exceed vector_dimensions")
		}
	}

	if c.Lexical.BM25K1 < 0 {
		return fmt.Errorf("lexical.bm25_k1 must be >= 0")
	}
	if c.Lexical.BM25B < 0 || c.Lexical.BM25B > 1 {
		return fmt.Errorf("lexical.bm25_b must be between 0 and 1")
	}

	if c.Session.MaxConcurrentAgents < 0 {
		return fmt.Errorf("session.max_concurrent_agents must be >= 0")
	}

	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("cache.cache_max_size must be >= 0")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: console, json")
	}

	if c.Transport.MetricsExportEnabled {
		if c.Transport.MetricsExportPort < 1 || c.Transport.MetricsExportPort > 65535 {
			return fmt.Errorf("transport.metrics_export_port must be between 1 and 65535")
		}
	}

	return nil
}

// EnsureSnapshotDir creates the directory holding the store's snapshot
// file, if it doesn't already exist.
func (c *Config) EnsureSnapshotDir() error {
	dir := filepath.Dir(c.Store.SnapshotPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return nil
}

// ConfigPath returns the default configuration directory.
func ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".agrama")
}
