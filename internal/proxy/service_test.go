package proxy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/metgallery/internal/insight"
	"github.com/lehigh-university-libraries/metgallery/internal/models"
	"github.com/lehigh-university-libraries/metgallery/internal/providers"
)

// mockProvider implements providers.Provider for testing
type mockProvider struct {
	mu       sync.Mutex
	calls    int
	generate func(ctx context.Context, config providers.Config) (string, error)
}

func (m *mockProvider) GenerateText(ctx context.Context, config providers.Config) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.generate != nil {
		return m.generate(ctx, config)
	}
	return "insight for: " + config.Prompt, nil
}

func (m *mockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestGenerateCachesIdenticalRequests(t *testing.T) {
	provider := &mockProvider{}
	s := NewService(provider)

	record := &models.ArtworkRecord{ObjectID: 436524, Title: "Sunflowers", ArtistDisplayName: "Vincent van Gogh", ObjectDate: "1887"}
	req := models.InsightRequest{Prompt: insight.BuildPrompt(record), ObjectID: models.ObjectIDFromInt(record.ObjectID)}

	first, err := s.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	second, err := s.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if first.Text != second.Text {
		t.Errorf("Expected identical text, got %q and %q", first.Text, second.Text)
	}
	if first.Cached || !second.Cached {
		t.Errorf("Expected only the second response to be cached, got %v and %v", first.Cached, second.Cached)
	}
	if provider.Calls() != 1 {
		t.Errorf("Expected 1 upstream call, got %d", provider.Calls())
	}
}

func TestGenerateFallsThroughAfterTTL(t *testing.T) {
	provider := &mockProvider{}
	cache, clock := newTestCache(10*time.Minute, 10)
	s := NewService(provider, WithCache(cache))
	req := models.InsightRequest{Prompt: "p"}

	if _, err := s.Generate(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	clock.Advance(11 * time.Minute)
	resp, err := s.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if resp.Cached {
		t.Error("Expected stale entry to be regenerated")
	}
	if provider.Calls() != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", provider.Calls())
	}
}

func TestGenerateKeysByObjectID(t *testing.T) {
	provider := &mockProvider{}
	s := NewService(provider)

	for _, id := range []models.ObjectID{"1", "2", ""} {
		if _, err := s.Generate(context.Background(), models.InsightRequest{Prompt: "same", ObjectID: id}); err != nil {
			t.Fatal(err)
		}
	}

	if provider.Calls() != 3 {
		t.Errorf("Expected a separate upstream call per object id, got %d", provider.Calls())
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		provider   providers.Provider
		prompt     string
		wantKind   Kind
		wantStatus int
	}{
		{
			name:       "empty prompt",
			provider:   &mockProvider{},
			prompt:     "   ",
			wantKind:   KindInvalidRequest,
			wantStatus: 400,
		},
		{
			name:       "no provider configured",
			provider:   nil,
			prompt:     "p",
			wantKind:   KindConfig,
			wantStatus: 500,
		},
		{
			name: "missing credential",
			provider: &mockProvider{generate: func(context.Context, providers.Config) (string, error) {
				return "", providers.ErrMissingCredential
			}},
			prompt:     "p",
			wantKind:   KindConfig,
			wantStatus: 500,
		},
		{
			name: "quota in message",
			provider: &mockProvider{generate: func(context.Context, providers.Config) (string, error) {
				return "", errors.New("googleapi: Error 429: You exceeded your current quota")
			}},
			prompt:     "p",
			wantKind:   KindRateLimited,
			wantStatus: 429,
		},
		{
			name: "rate limit sentinel",
			provider: &mockProvider{generate: func(context.Context, providers.Config) (string, error) {
				return "", fmt.Errorf("wrapped: %w", providers.ErrRateLimited)
			}},
			prompt:     "p",
			wantKind:   KindRateLimited,
			wantStatus: 429,
		},
		{
			name: "api key in message",
			provider: &mockProvider{generate: func(context.Context, providers.Config) (string, error) {
				return "", errors.New("API key not valid. Please pass a valid API key.")
			}},
			prompt:     "p",
			wantKind:   KindConfig,
			wantStatus: 500,
		},
		{
			name: "generic failure",
			provider: &mockProvider{generate: func(context.Context, providers.Config) (string, error) {
				return "", errors.New("connection reset")
			}},
			prompt:     "p",
			wantKind:   KindUpstream,
			wantStatus: 500,
		},
		{
			name: "empty text",
			provider: &mockProvider{generate: func(context.Context, providers.Config) (string, error) {
				return "", nil
			}},
			prompt:     "p",
			wantKind:   KindUpstream,
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.provider)
			_, err := s.Generate(context.Background(), models.InsightRequest{Prompt: tt.prompt})

			var proxyErr *Error
			if !errors.As(err, &proxyErr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if proxyErr.Kind != tt.wantKind {
				t.Errorf("Expected kind %d, got %d", tt.wantKind, proxyErr.Kind)
			}
			if proxyErr.StatusCode() != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, proxyErr.StatusCode())
			}
		})
	}
}

func TestGenerateDoesNotCacheFailures(t *testing.T) {
	fail := true
	provider := &mockProvider{generate: func(_ context.Context, config providers.Config) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return "ok", nil
	}}
	s := NewService(provider)
	req := models.InsightRequest{Prompt: "p", ObjectID: "7"}

	if _, err := s.Generate(context.Background(), req); err == nil {
		t.Fatal("Expected failure")
	}
	fail = false
	resp, err := s.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected recovery, got %v", err)
	}
	if resp.Cached || resp.Text != "ok" {
		t.Errorf("Unexpected response %+v", resp)
	}
}
