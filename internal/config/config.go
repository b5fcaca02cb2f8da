// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Seeds configuration
	Seeds SeedsConfig `yaml:"seeds"`

	// Index configuration
	Index IndexConfig `yaml:"index"`

	// Embedding provider configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Evaluation configuration
	Evaluation EvaluationConfig `yaml:"evaluation"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Output configuration
	Output OutputConfig `yaml:"output"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// SeedsConfig holds experience seed settings.
type SeedsConfig struct {
	Path           string `envconfig:"MEMGRAFT_SEEDS" yaml:"path"`
	TargetBenign   int    `envconfig:"MEMGRAFT_TARGET_BENIGN" yaml:"target_benign"`
	TargetPoisoned int    `envconfig:"MEMGRAFT_TARGET_POISONED" yaml:"target_poisoned"`
	AuditPath      string `envconfig:"MEMGRAFT_AUDIT_PATH" yaml:"audit_path"`
}

// IndexConfig holds retrieval index settings.
type IndexConfig struct {
	Backend string `envconfig:"MEMGRAFT_BACKEND" yaml:"backend"`
	TopK    int    `envconfig:"MEMGRAFT_TOP_K" yaml:"top_k"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	URL               string  `envconfig:"MEMGRAFT_EMBED_URL" yaml:"url"`
	Model             string  `envconfig:"MEMGRAFT_EMBED_MODEL" yaml:"model"`
	Dim               int     `envconfig:"MEMGRAFT_EMBED_DIM" yaml:"dim"`
	TimeoutSeconds    int     `envconfig:"MEMGRAFT_EMBED_TIMEOUT" yaml:"timeout_seconds"`
	RequestsPerSecond float64 `envconfig:"MEMGRAFT_EMBED_RPS" yaml:"requests_per_second"`
	Burst             int     `envconfig:"MEMGRAFT_EMBED_BURST" yaml:"burst"`
	CacheType         string  `envconfig:"MEMGRAFT_EMBED_CACHE_TYPE" yaml:"cache_type"`
	CacheSize         int     `envconfig:"MEMGRAFT_EMBED_CACHE_SIZE" yaml:"cache_size"`
	RedisURL          string  `envconfig:"MEMGRAFT_REDIS_URL" yaml:"redis_url"`
}

// EvaluationConfig holds evaluation settings.
type EvaluationConfig struct {
	Scoring     string `envconfig:"MEMGRAFT_SCORING" yaml:"scoring"`
	Parallelism int    `envconfig:"MEMGRAFT_PARALLELISM" yaml:"parallelism"`
	QueriesPath string `envconfig:"MEMGRAFT_QUERIES" yaml:"queries_path"`
}

// BusConfig holds audit event bus settings.
type BusConfig struct {
	Type         string `envconfig:"MEMGRAFT_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"MEMGRAFT_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"MEMGRAFT_KAFKA_GROUP" yaml:"kafka_group"`
}

// OutputConfig holds artifact output settings.
type OutputConfig struct {
	Dir       string `envconfig:"MEMGRAFT_OUT_DIR" yaml:"dir"`
	IndexFile string `envconfig:"MEMGRAFT_INDEX_FILE" yaml:"index_file"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"MEMGRAFT_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"MEMGRAFT_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Seeds = SeedsConfig{
		Path:           "payloads/experience_seeds.json",
		TargetBenign:   100,
		TargetPoisoned: 10,
	}

	cfg.Index = IndexConfig{
		Backend: "lexical",
		TopK:    3,
	}

	cfg.Embedding = EmbeddingConfig{
		Model:             "all-minilm-l6-v2",
		Dim:               384,
		TimeoutSeconds:    10,
		RequestsPerSecond: 10,
		Burst:             20,
		CacheType:         "memory",
		CacheSize:         10000,
		RedisURL:          "redis://localhost:6379",
	}

	cfg.Evaluation = EvaluationConfig{
		Scoring:     "binary",
		Parallelism: 4,
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.Output = OutputConfig{
		Dir:       "results",
		IndexFile: "poison_index.json",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Seeds.TargetBenign < 0 {
		errs = append(errs, "target_benign cannot be negative")
	}

	if c.Seeds.TargetPoisoned < 0 {
		errs = append(errs, "target_poisoned cannot be negative")
	}

	validBackends := map[string]bool{"lexical": true, "vector": true}
	if !validBackends[c.Index.Backend] {
		errs = append(errs, fmt.Sprintf("invalid backend: %s (must be lexical or vector)", c.Index.Backend))
	}

	if c.Index.TopK < 1 {
		errs = append(errs, "top_k must be positive")
	}

	if c.Embedding.Dim < 1 {
		errs = append(errs, "embedding dim must be positive")
	}

	if c.Embedding.TimeoutSeconds < 1 {
		errs = append(errs, "embedding timeout_seconds must be positive")
	}

	validCacheTypes := map[string]bool{"memory": true, "redis": true, "none": true}
	if !validCacheTypes[c.Embedding.CacheType] {
		errs = append(errs, fmt.Sprintf("invalid cache type: %s (must be memory, redis, or none)", c.Embedding.CacheType))
	}

	validScoring := map[string]bool{"binary": true, "fraction": true}
	if !validScoring[c.Evaluation.Scoring] {
		errs = append(errs, fmt.Sprintf("invalid scoring mode: %s (must be binary or fraction)", c.Evaluation.Scoring))
	}

	if c.Evaluation.Parallelism < 1 {
		errs = append(errs, "parallelism must be positive")
	}

	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// VectorConfigured reports whether an embedding provider URL is set.
// The vector backend is only eligible when this is true; otherwise the
// harness resolves to the lexical backend.
func (c *Config) VectorConfigured() bool {
	return strings.TrimSpace(c.Embedding.URL) != ""
}
