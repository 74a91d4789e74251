package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Providers the proxy can be configured with
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	// Client side
	MetAPIBaseURL   string `yaml:"met_api_base_url"`
	InsightProxyURL string `yaml:"insight_proxy_url"`
	FavoritesPath   string `yaml:"favorites_path"`
	PageSize        int    `yaml:"page_size"`
	RecordCacheSize int    `yaml:"record_cache_size"`
	DefaultSearch   string `yaml:"default_search"`

	// Proxy side
	Port               string        `yaml:"port"`
	StaticDir          string        `yaml:"static_dir"`
	Provider           string        `yaml:"provider"`
	Model              string        `yaml:"model"`
	Temperature        float64       `yaml:"temperature"`
	GeminiAPIKey       string        `yaml:"-"`
	OpenAIAPIKey       string        `yaml:"-"`
	OllamaURL          string        `yaml:"ollama_url"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries    int           `yaml:"cache_max_entries"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
}

func Default() Config {
	return Config{
		MetAPIBaseURL:      "https://collectionapi.metmuseum.org/public/collection/v1",
		InsightProxyURL:    "http://localhost:8888/api/gemini",
		FavoritesPath:      defaultFavoritesPath(),
		PageSize:           21,
		RecordCacheSize:    256,
		DefaultSearch:      "sunflowers",
		Port:               "8888",
		StaticDir:          "static",
		Provider:           ProviderGemini,
		Temperature:        0.7,
		OllamaURL:          "http://localhost:11434",
		CacheTTL:           30 * time.Minute,
		CacheMaxEntries:    100,
		RateLimitPerMinute: 30,
	}
}

func defaultFavoritesPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "favorites.json"
	}
	return filepath.Join(dir, "metgallery", "favorites.json")
}

// Load builds a Config from defaults, the optional YAML file at path, and the
// environment, in that order of precedence (environment wins).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
		slog.Debug("Loaded config file", "path", path)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.MetAPIBaseURL, "MET_API_BASE_URL")
	setString(&c.InsightProxyURL, "INSIGHT_PROXY_URL")
	setString(&c.FavoritesPath, "FAVORITES_PATH")
	setString(&c.DefaultSearch, "DEFAULT_SEARCH")
	setString(&c.Port, "PORT")
	setString(&c.StaticDir, "STATIC_DIR")
	setString(&c.Provider, "INSIGHT_PROVIDER")
	setString(&c.Model, "INSIGHT_MODEL")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.OllamaURL, "OLLAMA_URL")

	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GOOGLE_GEMINI_API_KEY")
	}

	var errs []error
	errs = append(errs, setInt(&c.PageSize, "PAGE_SIZE"))
	errs = append(errs, setInt(&c.CacheMaxEntries, "INSIGHT_CACHE_MAX_ENTRIES"))
	errs = append(errs, setInt(&c.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE"))

	if v := os.Getenv("INSIGHT_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("INSIGHT_CACHE_TTL: %w", err))
		} else {
			c.CacheTTL = d
		}
	}

	return errors.Join(errs...)
}

// Validate rejects settings the client or proxy cannot run with
func (c Config) Validate() error {
	var errs []error
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", c.PageSize))
	}
	if c.CacheMaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("cache max entries must be positive, got %d", c.CacheMaxEntries))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("rate limit must be positive, got %d", c.RateLimitPerMinute))
	}
	switch strings.ToLower(c.Provider) {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unsupported provider: %s", c.Provider))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
