package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/metgallery/internal/collection"
	"github.com/lehigh-university-libraries/metgallery/internal/config"
	"github.com/lehigh-university-libraries/metgallery/internal/favorites"
	"github.com/lehigh-university-libraries/metgallery/internal/gallery"
	"github.com/lehigh-university-libraries/metgallery/internal/gemini"
	"github.com/lehigh-university-libraries/metgallery/internal/insight"
	"github.com/lehigh-university-libraries/metgallery/internal/ollama"
	"github.com/lehigh-university-libraries/metgallery/internal/openai"
	"github.com/lehigh-university-libraries/metgallery/internal/providers"
	"github.com/lehigh-university-libraries/metgallery/internal/proxy"
	"github.com/lehigh-university-libraries/metgallery/internal/storage"
)

func newCollectionClient(cfg config.Config) *collection.Client {
	return collection.NewClient(cfg.MetAPIBaseURL, collection.WithRecordCache(cfg.RecordCacheSize))
}

func newInsightClient(cfg config.Config) *insight.Client {
	return insight.NewClient(cfg.InsightProxyURL, &http.Client{Timeout: 90 * time.Second})
}

func newFavoritesStore(cfg config.Config) (*favorites.Store, error) {
	backend, err := storage.NewFile(cfg.FavoritesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open favorites: %w", err)
	}
	return favorites.New(backend), nil
}

func newController(cfg config.Config) (*gallery.Controller, error) {
	favs, err := newFavoritesStore(cfg)
	if err != nil {
		return nil, err
	}
	return gallery.New(
		newCollectionClient(cfg),
		favs,
		newInsightClient(cfg),
		gallery.WithPageSize(cfg.PageSize),
	), nil
}

func newProvider(cfg config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(cfg.GeminiAPIKey), nil
	case config.ProviderOpenAI:
		return openai.New(cfg.OpenAIAPIKey, ""), nil
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func newProxyService(cfg config.Config) (*proxy.Service, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return proxy.NewService(
		provider,
		proxy.WithCache(proxy.NewCache(cfg.CacheTTL, cfg.CacheMaxEntries)),
		proxy.WithModel(cfg.Model, cfg.Temperature),
	), nil
}
