package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
embedding:
  timeout: 2s
  retries: 2
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Embedding.Timeout != 2*time.Second || cfg.Embedding.Retries != 2 {
		t.Errorf("embedding timeout/retries: got %v/%d", cfg.Embedding.Timeout, cfg.Embedding.Retries)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db/mentorlink.db"
  vector_index_path: "./data/cards.vec"
engine:
  alias_file: "./aliases.yaml"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "mentorlink.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if want := filepath.Join(dir, "data", "cards.vec"); cfg.Storage.VectorIndexPath != want {
		t.Errorf("vector_index_path = %s, want %s", cfg.Storage.VectorIndexPath, want)
	}
	if want := filepath.Join(dir, "aliases.yaml"); cfg.Engine.AliasFile != want {
		t.Errorf("alias_file = %s, want %s", cfg.Engine.AliasFile, want)
	}
}

func TestLoad_matchingOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
matching:
  semantic:
    instant_threshold: 0.9
  live:
    min_points: 500
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Matching.Semantic.InstantThreshold != 0.9 {
		t.Errorf("instant_threshold = %v", cfg.Matching.Semantic.InstantThreshold)
	}
	if cfg.Matching.Live.MinPoints != 500 {
		t.Errorf("min_points = %v", cfg.Matching.Live.MinPoints)
	}
	if cfg.Matching.Semantic.HighConfidenceThreshold != 0.92 {
		t.Errorf("unset thresholds should take defaults, got %v", cfg.Matching.Semantic.HighConfidenceThreshold)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Engine.MaxAssignAttempts != 3 {
		t.Errorf("default max_assign_attempts: got %d", cfg.Engine.MaxAssignAttempts)
	}
	if cfg.Engine.ResultCacheSize != 1000 || cfg.Engine.ResultCacheTTL != 30*time.Minute {
		t.Errorf("result cache defaults: got %d/%v", cfg.Engine.ResultCacheSize, cfg.Engine.ResultCacheTTL)
	}
	if cfg.Engine.AliasRefreshTTL != 6*time.Hour {
		t.Errorf("alias ttl: got %v", cfg.Engine.AliasRefreshTTL)
	}
	if cfg.Embedding.Retries != 0 {
		t.Errorf("retries should stay zero when unset, got %d", cfg.Embedding.Retries)
	}
	if cfg.Matching.Live.MinPoints != 350 {
		t.Errorf("matching defaults not applied: %v", cfg.Matching.Live.MinPoints)
	}
}

func TestEngineConfig_WatchAliasFileOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		e := &EngineConfig{}
		if got := e.WatchAliasFileOrDefault(); !got {
			t.Errorf("WatchAliasFileOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		e := &EngineConfig{WatchAliasFile: &f}
		if got := e.WatchAliasFileOrDefault(); got {
			t.Errorf("WatchAliasFileOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db", VectorIndexPath: "/tmp/cards.vec"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
