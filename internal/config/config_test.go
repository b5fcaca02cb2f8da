package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Index.Backend != "lexical" {
		t.Errorf("default backend = %s, want lexical", cfg.Index.Backend)
	}
	if cfg.Index.TopK != 3 {
		t.Errorf("default top_k = %d, want 3", cfg.Index.TopK)
	}
	if cfg.Seeds.TargetBenign != 100 {
		t.Errorf("default target_benign = %d, want 100", cfg.Seeds.TargetBenign)
	}
	if cfg.Seeds.TargetPoisoned != 10 {
		t.Errorf("default target_poisoned = %d, want 10", cfg.Seeds.TargetPoisoned)
	}
	if cfg.Evaluation.Scoring != "binary" {
		t.Errorf("default scoring = %s, want binary", cfg.Evaluation.Scoring)
	}
	if cfg.Bus.Type != "memory" {
		t.Errorf("default bus type = %s, want memory", cfg.Bus.Type)
	}
	if cfg.VectorConfigured() {
		t.Error("vector should not be configured by default")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
index:
  backend: vector
  top_k: 5
embedding:
  url: http://localhost:9090
evaluation:
  scoring: fraction
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Index.Backend != "vector" {
		t.Errorf("backend = %s, want vector", cfg.Index.Backend)
	}
	if cfg.Index.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.Index.TopK)
	}
	if !cfg.VectorConfigured() {
		t.Error("VectorConfigured() = false with embedding URL set")
	}
	if cfg.Evaluation.Scoring != "fraction" {
		t.Errorf("scoring = %s, want fraction", cfg.Evaluation.Scoring)
	}

	// File overrides must not clobber untouched defaults.
	if cfg.Output.Dir != "results" {
		t.Errorf("output dir = %s, want results", cfg.Output.Dir)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MEMGRAFT_TOP_K", "7")
	t.Setenv("MEMGRAFT_SCORING", "fraction")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Index.TopK != 7 {
		t.Errorf("top_k = %d, want 7", cfg.Index.TopK)
	}
	if cfg.Evaluation.Scoring != "fraction" {
		t.Errorf("scoring = %s, want fraction", cfg.Evaluation.Scoring)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid backend",
			mutate:  func(c *Config) { c.Index.Backend = "faiss" },
			wantErr: "invalid backend",
		},
		{
			name:    "zero top_k",
			mutate:  func(c *Config) { c.Index.TopK = 0 },
			wantErr: "top_k must be positive",
		},
		{
			name:    "negative target_benign",
			mutate:  func(c *Config) { c.Seeds.TargetBenign = -1 },
			wantErr: "target_benign cannot be negative",
		},
		{
			name:    "invalid scoring",
			mutate:  func(c *Config) { c.Evaluation.Scoring = "weighted" },
			wantErr: "invalid scoring mode",
		},
		{
			name:    "invalid bus",
			mutate:  func(c *Config) { c.Bus.Type = "nats" },
			wantErr: "invalid bus type",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
