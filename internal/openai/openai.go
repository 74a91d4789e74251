package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/metgallery/internal/providers"
)

const (
	// DefaultBaseURL is the public OpenAI API
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when no model is configured
	DefaultModel = "gpt-4o-mini"
)

// OpenAI is a provider for OpenAI-compatible chat completion APIs
type OpenAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a new OpenAI provider
func New(apiKey, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAI{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// GenerateText generates text for the given prompt using OpenAI
func (o *OpenAI) GenerateText(ctx context.Context, config providers.Config) (string, error) {
	if o.apiKey == "" {
		return "", providers.ErrMissingCredential
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": config.Prompt,
			},
		},
		"temperature": config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", providers.ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return "", providers.ErrCredential
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no choices returned from OpenAI: %w", providers.ErrEmptyResponse)
	}

	return response.Choices[0].Message.Content, nil
}
