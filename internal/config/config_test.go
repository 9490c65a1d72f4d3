package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MARGIN_CONFIG_FILE", "OPENAI_API_KEY", "MARGIN_CRITIQUE_MODEL",
		"MARGIN_EMBEDDING_MODEL", "MARGIN_MAX_DOCUMENT_BYTES",
		"MARGIN_MAX_DOCUMENT_PAGES", "MARGIN_CHUNK_SIZE", "MARGIN_CHUNK_OVERLAP",
		"MARGIN_TOP_K", "MARGIN_MIN_REQUEST_INTERVAL", "MARGIN_DB_PATH",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.CritiqueModel != "gpt-4o-mini" {
		t.Errorf("Unexpected critique model: %q", cfg.CritiqueModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("Unexpected embedding model: %q", cfg.EmbeddingModel)
	}
	if cfg.MaxDocumentBytes != 10*1024*1024 {
		t.Errorf("Unexpected max bytes: %d", cfg.MaxDocumentBytes)
	}
	if cfg.MaxDocumentPages != 50 {
		t.Errorf("Unexpected max pages: %d", cfg.MaxDocumentPages)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 100 {
		t.Errorf("Unexpected chunking: %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TopK != 5 {
		t.Errorf("Unexpected top-k: %d", cfg.TopK)
	}
	if cfg.MinRequestInterval != 5*time.Second {
		t.Errorf("Unexpected request interval: %v", cfg.MinRequestInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MARGIN_CRITIQUE_MODEL", "gpt-4o")
	t.Setenv("MARGIN_TOP_K", "8")
	t.Setenv("MARGIN_MIN_REQUEST_INTERVAL", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("Unexpected API key: %q", cfg.OpenAIAPIKey)
	}
	if cfg.CritiqueModel != "gpt-4o" {
		t.Errorf("Unexpected critique model: %q", cfg.CritiqueModel)
	}
	if cfg.TopK != 8 {
		t.Errorf("Unexpected top-k: %d", cfg.TopK)
	}
	if cfg.MinRequestInterval != 2*time.Second {
		t.Errorf("Unexpected request interval: %v", cfg.MinRequestInterval)
	}
}

func TestLoadYAMLFileWithEnvPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "critique_model: gpt-4-turbo\ntop_k: 3\ndb_path: /tmp/margin-test.db\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("MARGIN_CONFIG_FILE", path)
	t.Setenv("MARGIN_TOP_K", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.CritiqueModel != "gpt-4-turbo" {
		t.Errorf("Expected file value for critique model, got %q", cfg.CritiqueModel)
	}
	if cfg.TopK != 9 {
		t.Errorf("Expected env to override file top_k, got %d", cfg.TopK)
	}
	if cfg.DBPath != "/tmp/margin-test.db" {
		t.Errorf("Unexpected db path: %q", cfg.DBPath)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARGIN_CONFIG_FILE", "/nonexistent/margin.yaml")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestLoadMalformedEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MARGIN_TOP_K", "not-a-number")
	t.Setenv("MARGIN_MIN_REQUEST_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.TopK != 5 {
		t.Errorf("Expected default top-k for malformed env, got %d", cfg.TopK)
	}
	if cfg.MinRequestInterval != 5*time.Second {
		t.Errorf("Expected default interval for malformed env, got %v", cfg.MinRequestInterval)
	}
}
