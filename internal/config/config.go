// Package config provides configuration loading and structs for the ragchat server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Intent     IntentConfig     `yaml:"intent"`
	Documents  DocumentsConfig  `yaml:"documents"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds vector-store and conversation-log settings.
type StorageConfig struct {
	QdrantAddr    string `yaml:"qdrant_addr"`
	HistoryDBPath string `yaml:"history_db_path"`
}

// EmbeddingConfig holds embedding-service settings. The API key is read from the
// environment variable named by APIKeyEnv, never from the config file.
type EmbeddingConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	PrimaryModel   string `yaml:"primary_model"`
	FallbackModel  string `yaml:"fallback_model"`
	Dimensions     int    `yaml:"dimensions"`
	CacheSize      int    `yaml:"cache_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-call embedding timeout.
func (e *EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// GenerationConfig holds text-generation settings.
type GenerationConfig struct {
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-call generation timeout.
func (g *GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// RetrievalConfig holds chunking and retrieval tuning. The term lists and the
// keyword-trigger threshold are product tuning; the defaults preserve the shipped
// behavior and should not be changed casually.
type RetrievalConfig struct {
	ChunkSize       int `yaml:"chunk_size"`
	ChunkOverlap    int `yaml:"chunk_overlap"`
	MaxChunks       int `yaml:"max_chunks"`
	IngestMaxChunks int `yaml:"ingest_max_chunks"`
	MinChunkLength  int `yaml:"min_chunk_length"`
	MaxTextLength   int `yaml:"max_text_length"`

	TopK       int `yaml:"top_k"`
	ChatTopK   int `yaml:"chat_top_k"`
	BatchSize  int `yaml:"batch_size"`
	BatchPause int `yaml:"batch_pause_ms"`

	HighPriorityTerms []string `yaml:"high_priority_terms"`
	SpecificTerms     []string `yaml:"specific_terms"`
	// KeywordTriggerBelow runs keyword search for specific-term queries only when
	// semantic search returned fewer than this many results.
	KeywordTriggerBelow int `yaml:"keyword_trigger_below"`
}

// BatchPauseDuration returns the pause between ingestion batches.
func (r *RetrievalConfig) BatchPauseDuration() time.Duration {
	return time.Duration(r.BatchPause) * time.Millisecond
}

// IntentConfig holds the fixed vocabularies for intent classification.
type IntentConfig struct {
	NECKeywords      []string `yaml:"nec_keywords"`
	WattmonkKeywords []string `yaml:"wattmonk_keywords"`
	NECAnchors       []string `yaml:"nec_anchors"`
	WattmonkAnchors  []string `yaml:"wattmonk_anchors"`
}

// DocumentsConfig holds watched ingestion directories, one per corpus.
type DocumentsConfig struct {
	NECDir      string   `yaml:"nec_dir"`
	WattmonkDir string   `yaml:"wattmonk_dir"`
	Extensions  []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, applies defaults, and expands
// relative paths. Returns an error if the file cannot be read or parsed.
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
	cfg.Storage.HistoryDBPath = expandPath(cfg.Storage.HistoryDBPath, configDir)
	if cfg.Documents.NECDir != "" {
		cfg.Documents.NECDir = expandPath(cfg.Documents.NECDir, configDir)
	}
	if cfg.Documents.WattmonkDir != "" {
		cfg.Documents.WattmonkDir = expandPath(cfg.Documents.WattmonkDir, configDir)
	}

	return &cfg, nil
}

// Default returns a config with all defaults applied, for use without a file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to
// configDir; other relative paths are relative to the home directory.
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
