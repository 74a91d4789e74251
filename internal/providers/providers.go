package providers

import (
	"context"
	"errors"
)

var (
	// ErrMissingCredential is returned when a provider has no API key configured
	ErrMissingCredential = errors.New("API key not configured")
	// ErrCredential is returned when the upstream rejects the configured API key
	ErrCredential = errors.New("API key rejected by upstream")
	// ErrRateLimited is returned when the upstream reports quota or rate limit exhaustion
	ErrRateLimited = errors.New("upstream rate limit exceeded")
	// ErrEmptyResponse is returned when the upstream answered without any text
	ErrEmptyResponse = errors.New("empty response from upstream")
)

// Config represents the configuration for a single generation call
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
}

// Provider defines the interface for a text generation backend
type Provider interface {
	GenerateText(ctx context.Context, config Config) (string, error)
}
