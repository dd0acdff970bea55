// Package config provides configuration loading and structs for the mentorlink server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/mentorlink/internal/ranking"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Engine    EngineConfig    `yaml:"engine"`
	Matching  ranking.Config  `yaml:"matching"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the vector index snapshot.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
}

// EmbeddingConfig holds settings for the Ollama embedding service.
type EmbeddingConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Model                   string        `yaml:"model"`
	Dimensions              int           `yaml:"dimensions"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CacheSize               int           `yaml:"cache_size"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

// EngineConfig holds orchestrator, cache and background job settings.
type EngineConfig struct {
	ResultCacheSize   int           `yaml:"result_cache_size"`
	ResultCacheTTL    time.Duration `yaml:"result_cache_ttl"`
	AliasRefreshTTL   time.Duration `yaml:"alias_refresh_ttl"`
	AliasFile         string        `yaml:"alias_file"`
	WatchAliasFile    *bool         `yaml:"watch_alias_file"`
	MaxAssignAttempts int           `yaml:"max_assign_attempts"`
	EmbedTimeout      time.Duration `yaml:"embed_timeout"`
	NotifyTimeout     time.Duration `yaml:"notify_timeout"`
	VectorizeInterval time.Duration `yaml:"vectorize_interval"`
	VectorizeBatch    int           `yaml:"vectorize_batch"`
}

// WatchAliasFileOrDefault returns whether to watch the alias file; defaults to true when unset.
func (e *EngineConfig) WatchAliasFileOrDefault() bool {
	if e.WatchAliasFile != nil {
		return *e.WatchAliasFile
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	if cfg.Engine.AliasFile != "" {
		cfg.Engine.AliasFile = expandPath(cfg.Engine.AliasFile, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
