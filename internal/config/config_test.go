package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Semantic.VectorDimensions != 768 {
		t.Errorf("Expected VectorDimensions=768, got %d", cfg.Semantic.VectorDimensions)
	}
	if cfg.Semantic.MaxConnections != 16 {
		t.Errorf("Expected MaxConnections=16, got %d", cfg.Semantic.MaxConnections)
	}
	if len(cfg.Semantic.MatryoshkaDims) != 3 {
		t.Errorf("Expected 3 matryoshka dims, got %d", len(cfg.Semantic.MatryoshkaDims))
	}

	if cfg.Lexical.BM25K1 != 1.2 {
		t.Errorf("Expected BM25K1=1.2, got %v", cfg.Lexical.BM25K1)
	}
	if cfg.Lexical.BM25B != 0.75 {
		t.Errorf("Expected BM25B=0.75, got %v", cfg.Lexical.BM25B)
	}

	if cfg.Cache.Enabled {
		t.Error("Expected Cache.Enabled=false by default")
	}

	if !cfg.Transport.CORS {
		t.Error("Expected Transport.CORS=true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		expectErr bool
	}{
		{name: "valid config", modify: func(c *Config) {}, expectErr: false},
		{
			name:      "zero vector dimensions",
			modify:    func(c *Config) { c.Semantic.VectorDimensions = 0 },
			expectErr: true,
		},
		{
			name:      "non-ascending matryoshka dims",
			modify:    func(c *Config) { c.Semantic.MatryoshkaDims = []int{256, 64, 768} },
			expectErr: true,
		},
		{
			name:      "matryoshka dim exceeds vector dimensions",
			modify:    func(c *Config) { c.Semantic.MatryoshkaDims = []int{64, 256, 2000} },
			expectErr: true,
		},
		{
			name:      "bm25 b out of range",
			modify:    func(c *Config) { c.Lexical.BM25B = 1.5 },
			expectErr: true,
		},
		{
			name:      "negative cache size",
			modify:    func(c *Config) { c.Cache.MaxSize = -1 },
			expectErr: true,
		},
		{
			name:      "invalid logging level",
			modify:    func(c *Config) { c.Logging.Level = "invalid" },
			expectErr: true,
		},
		{
			name: "invalid metrics export port",
			modify: func(c *Config) {
				c.Transport.MetricsExportEnabled = true
				c.Transport.MetricsExportPort = 99999
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.expectErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadConfigNoFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", oldHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error with missing config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected config, got nil")
	}
	if cfg.Semantic.VectorDimensions != 768 {
		t.Errorf("Expected default vector_dimensions=768, got %d", cfg.Semantic.VectorDimensions)
	}
}

func TestLoadConfigWithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
profile: test
semantic:
  vector_dimensions: 384
  max_connections: 8
  matryoshka_dims: [64, 384]
lexical:
  bm25_k1: 1.5
  bm25_b: 0.8
cache:
  cache_enabled: true
  cache_max_size: 500
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Profile != "test" {
		t.Errorf("Expected profile=test, got %s", cfg.Profile)
	}
	if cfg.Semantic.VectorDimensions != 384 {
		t.Errorf("Expected vector_dimensions=384, got %d", cfg.Semantic.VectorDimensions)
	}
	if !cfg.Cache.Enabled {
		t.Error("Expected cache.cache_enabled=true")
	}
	if cfg.Cache.MaxSize != 500 {
		t.Errorf("Expected cache_max_size=500, got %d", cfg.Cache.MaxSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level=debug, got %s", cfg.Logging.Level)
	}
}

func TestEnsureSnapshotDir(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{
		Store: StoreConfig{
			SnapshotPath: filepath.Join(tmpDir, "subdir", "agrama.snapshot"),
		},
	}

	if err := cfg.EnsureSnapshotDir(); err != nil {
		t.Fatalf("EnsureSnapshotDir failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "subdir")); os.IsNotExist(err) {
		t.Error("snapshot directory was not created")
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if path == "" {
		t.Error("ConfigPath returned empty string")
	}

	homeDir, _ := os.UserHomeDir()
	expected := filepath.Join(homeDir, ".agrama")
	if path != expected {
		t.Errorf("Expected %s, got %s", expected, path)
	}
}
