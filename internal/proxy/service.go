package proxy

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/metgallery/internal/models"
	"github.com/lehigh-university-libraries/metgallery/internal/providers"
)

// DefaultTemperature keeps insights varied but on topic
const DefaultTemperature = 0.7

var rateLimitMarkers = []string{"quota", "rate limit", "resource exhausted", "resource has been exhausted"}

// Service forwards insight prompts to the upstream provider, holding the
// credential server-side and caching successful answers.
type Service struct {
	provider    providers.Provider
	cache       *Cache
	model       string
	temperature float64
}

// Option configures a Service
type Option func(*Service)

// WithCache replaces the default response cache
func WithCache(cache *Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithModel selects the upstream model and temperature
func WithModel(model string, temperature float64) Option {
	return func(s *Service) {
		s.model = model
		s.temperature = temperature
	}
}

// NewService creates a proxy service. provider may be nil when no
// upstream is configured; every uncached request then fails as a
// configuration error.
func NewService(provider providers.Provider, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		cache:       NewCache(DefaultCacheTTL, DefaultCacheMaxEntries),
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns the insight text for req, from cache when possible
func (s *Service) Generate(ctx context.Context, req models.InsightRequest) (*models.InsightResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &Error{Kind: KindInvalidRequest, Message: "Invalid request: prompt is required"}
	}

	key := CacheKey(string(req.ObjectID), req.Prompt)
	if text, ok := s.cache.Get(key); ok {
		slog.Info("Returning cached response", "object_id", req.ObjectID)
		return &models.InsightResponse{Text: text, Cached: true}, nil
	}

	if s.provider == nil {
		slog.Error("Insight provider not configured")
		return nil, &Error{Kind: KindConfig, Message: "Server configuration error: API key not found", Err: providers.ErrMissingCredential}
	}

	slog.Info("Generating content for prompt", "prompt_length", len(req.Prompt), "object_id", req.ObjectID)

	text, err := s.provider.GenerateText(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      req.Prompt,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = providers.ErrEmptyResponse
	}
	if err != nil {
		slog.Error("Error generating content", "object_id", req.ObjectID, "err", err)
		return nil, classify(err)
	}

	s.cache.Set(key, text)

	slog.Info("Successfully generated content", "response_length", len(text), "object_id", req.ObjectID)
	return &models.InsightResponse{Text: text}, nil
}

// classify maps a provider failure onto a client-safe proxy error
func classify(err error) *Error {
	msg := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, providers.ErrMissingCredential):
		return &Error{Kind: KindConfig, Message: "Server configuration error: API key not found", Err: err}
	case errors.Is(err, providers.ErrCredential), strings.Contains(msg, "api key"):
		return &Error{Kind: KindConfig, Message: "API key configuration error", Err: err}
	case errors.Is(err, providers.ErrRateLimited), containsAny(msg, rateLimitMarkers):
		return &Error{Kind: KindRateLimited, Message: "Rate limit exceeded. Please try again later.", Err: err}
	default:
		return &Error{Kind: KindUpstream, Message: "Failed to generate AI insights. Please try again.", Err: err}
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
