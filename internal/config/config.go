// Package config loads process configuration from environment variables,
// with an optional YAML file overlay for deployments that prefer files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable the pipeline reads. Zero values are replaced
// by defaults in Load.
type Config struct {
	// OpenAI
	OpenAIAPIKey   string `yaml:"openai_api_key"`
	CritiqueModel  string `yaml:"critique_model"`
	EmbeddingModel string `yaml:"embedding_model"`

	// Document limits (validation gate)
	MaxDocumentBytes int64 `yaml:"max_document_bytes"`
	MaxDocumentPages int   `yaml:"max_document_pages"`

	// Chunking
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Retrieval
	TopK int `yaml:"top_k"`

	// LLM request spacing
	MinRequestInterval time.Duration `yaml:"min_request_interval"`

	// Storage
	DBPath string `yaml:"db_path"`
}

// Load reads configuration from the environment. If MARGIN_CONFIG_FILE is
// set, the YAML file is applied first and env vars override it.
func Load() (Config, error) {
	var cfg Config

	if path := os.Getenv("MARGIN_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.CritiqueModel = envOr("MARGIN_CRITIQUE_MODEL", cfg.CritiqueModel)
	cfg.EmbeddingModel = envOr("MARGIN_EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.MaxDocumentBytes = envInt64("MARGIN_MAX_DOCUMENT_BYTES", cfg.MaxDocumentBytes)
	cfg.MaxDocumentPages = envInt("MARGIN_MAX_DOCUMENT_PAGES", cfg.MaxDocumentPages)
	cfg.ChunkSize = envInt("MARGIN_CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = envInt("MARGIN_CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.TopK = envInt("MARGIN_TOP_K", cfg.TopK)
	cfg.MinRequestInterval = envDuration("MARGIN_MIN_REQUEST_INTERVAL", cfg.MinRequestInterval)
	cfg.DBPath = envOr("MARGIN_DB_PATH", cfg.DBPath)

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.CritiqueModel == "" {
		c.CritiqueModel = "gpt-4o-mini"
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-3-small"
	}
	if c.MaxDocumentBytes <= 0 {
		c.MaxDocumentBytes = 10 * 1024 * 1024 // 10MB
	}
	if c.MaxDocumentPages <= 0 {
		c.MaxDocumentPages = 50
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 500
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = 100
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.MinRequestInterval <= 0 {
		c.MinRequestInterval = 5 * time.Second
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
