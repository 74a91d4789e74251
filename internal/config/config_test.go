package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.PageSize != 21 {
		t.Errorf("Expected page size 21, got %d", cfg.PageSize)
	}
	if cfg.CacheTTL != 30*time.Minute || cfg.CacheMaxEntries != 100 {
		t.Errorf("Unexpected cache defaults: %s / %d", cfg.CacheTTL, cfg.CacheMaxEntries)
	}
	if cfg.DefaultSearch != "sunflowers" {
		t.Errorf("Expected default search sunflowers, got %q", cfg.DefaultSearch)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metgallery.yaml")
	body := `
page_size: 12
cache_ttl: 5m
default_search: armor
provider: ollama
port: "9000"
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "fallback-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.PageSize != 12 {
		t.Errorf("Expected page size from file, got %d", cfg.PageSize)
	}
	if cfg.DefaultSearch != "armor" {
		t.Errorf("Expected default search from file, got %q", cfg.DefaultSearch)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Expected ttl from file, got %s", cfg.CacheTTL)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("Expected provider from file, got %s", cfg.Provider)
	}
	if cfg.Port != "9100" {
		t.Errorf("Expected env to override file port, got %s", cfg.Port)
	}
	if cfg.GeminiAPIKey != "fallback-key" {
		t.Errorf("Expected fallback gemini key, got %q", cfg.GeminiAPIKey)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero page size", "PAGE_SIZE", "0"},
		{"non-numeric page size", "PAGE_SIZE", "many"},
		{"negative cache size", "INSIGHT_CACHE_MAX_ENTRIES", "-1"},
		{"bad ttl", "INSIGHT_CACHE_TTL", "soon"},
		{"zero ttl", "INSIGHT_CACHE_TTL", "0s"},
		{"unknown provider", "INSIGHT_PROVIDER", "markov"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(""); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}
