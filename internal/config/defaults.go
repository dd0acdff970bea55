package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/mentorlink/data/db/mentorlink.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/mentorlink/data/indices/cards.vec"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 5 * time.Second
	}
	if cfg.Embedding.Backoff == 0 {
		cfg.Embedding.Backoff = 200 * time.Millisecond
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.CircuitFailureThreshold == 0 {
		cfg.Embedding.CircuitFailureThreshold = 5
	}
	if cfg.Embedding.CircuitReset == 0 {
		cfg.Embedding.CircuitReset = 30 * time.Second
	}
	if cfg.Engine.ResultCacheSize == 0 {
		cfg.Engine.ResultCacheSize = 1000
	}
	if cfg.Engine.ResultCacheTTL == 0 {
		cfg.Engine.ResultCacheTTL = 30 * time.Minute
	}
	if cfg.Engine.AliasRefreshTTL == 0 {
		cfg.Engine.AliasRefreshTTL = 6 * time.Hour
	}
	if cfg.Engine.MaxAssignAttempts == 0 {
		cfg.Engine.MaxAssignAttempts = 3
	}
	if cfg.Engine.EmbedTimeout == 0 {
		cfg.Engine.EmbedTimeout = 5 * time.Second
	}
	if cfg.Engine.NotifyTimeout == 0 {
		cfg.Engine.NotifyTimeout = 5 * time.Second
	}
	if cfg.Engine.VectorizeInterval == 0 {
		cfg.Engine.VectorizeInterval = time.Minute
	}
	if cfg.Engine.VectorizeBatch == 0 {
		cfg.Engine.VectorizeBatch = 50
	}
	cfg.Matching.ApplyDefaults()
}
