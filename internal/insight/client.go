package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/metgallery/internal/models"
)

// DefaultProxyURL is where the insight proxy is mounted when served alongside the gallery
const DefaultProxyURL = "/api/gemini"

// BuildPrompt renders the fixed prompt template for an artwork
func BuildPrompt(record *models.ArtworkRecord) string {
	artist := record.ArtistDisplayName
	if artist == "" {
		artist = "an unknown artist"
	}
	date := record.ObjectDate
	if date == "" {
		date = "an unknown date"
	}

	return fmt.Sprintf(`Tell me an interesting fact or provide a brief analysis about the artwork titled "%s" by %s, created around %s. Focus on its historical context, artistic style, or significance. Keep it concise, around 2-3 sentences.`,
		record.Title, artist, date)
}

// Client sends insight requests to the proxy
type Client struct {
	ProxyURL   string
	httpClient *http.Client
}

// NewClient creates a new insight proxy client
func NewClient(proxyURL string, hc *http.Client) *Client {
	if proxyURL == "" {
		proxyURL = DefaultProxyURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		ProxyURL:   proxyURL,
		httpClient: hc,
	}
}

// RequestInsight returns the generated commentary for record
func (c *Client) RequestInsight(ctx context.Context, record *models.ArtworkRecord) (string, error) {
	resp, err := c.RequestInsightDetailed(ctx, record)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// RequestInsightDetailed is RequestInsight but also reports whether the proxy served a cached answer
func (c *Client) RequestInsightDetailed(ctx context.Context, record *models.ArtworkRecord) (*models.InsightResponse, error) {
	if record == nil {
		return nil, &models.ValidationError{Field: "record", Reason: "must not be nil"}
	}
	if strings.TrimSpace(record.Title) == "" {
		return nil, &models.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	body, err := json.Marshal(models.InsightRequest{
		Prompt:   BuildPrompt(record),
		ObjectID: models.ObjectIDFromInt(record.ObjectID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal insight request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ProxyURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create insight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.NetworkError{Op: "request insight", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp models.ErrorResponse
		message := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		slog.Debug("Insight proxy returned error", "status", resp.StatusCode, "object_id", record.ObjectID)
		return nil, &models.UpstreamError{Status: resp.StatusCode, Message: message}
	}

	var insight models.InsightResponse
	if err := json.NewDecoder(resp.Body).Decode(&insight); err != nil {
		return nil, &models.UpstreamError{Status: resp.StatusCode, Message: "failed to decode insight response: " + err.Error()}
	}

	return &insight, nil
}
