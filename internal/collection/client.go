package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lehigh-university-libraries/metgallery/internal/models"
)

// DefaultBaseURL is the public Metropolitan Museum of Art collection API
const DefaultBaseURL = "https://collectionapi.metmuseum.org/public/collection/v1"

// Client is a read-only adapter for the museum collection API
type Client struct {
	BaseURL    string
	httpClient *http.Client
	records    *lru.Cache[int, models.ArtworkRecord]
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRecordCache keeps up to size successfully fetched records in memory.
// Artwork records are immutable upstream, so a cached copy never goes stale
// within a session. Failed fetches are never cached.
func WithRecordCache(size int) Option {
	return func(c *Client) {
		if size <= 0 {
			return
		}
		cache, err := lru.New[int, models.ArtworkRecord](size)
		if err != nil {
			slog.Warn("Record cache disabled", "size", size, "err", err)
			return
		}
		c.records = cache
	}
}

// NewClient creates a new collection client
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns every object id matching query that has images.
// Zero matches is a valid empty result, not an error.
func (c *Client) Search(ctx context.Context, query string) (*models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &models.ValidationError{Field: "query", Reason: "must not be empty"}
	}

	searchURL := fmt.Sprintf("%s/search?q=%s&hasImages=true", c.BaseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.NetworkError{Op: "search collection", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &models.UpstreamError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var result models.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &models.UpstreamError{Status: resp.StatusCode, Message: "failed to decode search response: " + err.Error()}
	}

	// The API reports no matches as {"total":0,"objectIDs":null}.
	if result.Total <= 0 || result.ObjectIDs == nil {
		result.ObjectIDs = []int{}
	}

	slog.Debug("Collection search complete", "query", query, "total", result.Total, "ids", len(result.ObjectIDs))
	return &result, nil
}

// GetObject fetches one artwork record. Any failure is reported as nil so a
// batch of fetches can tolerate missing items.
func (c *Client) GetObject(ctx context.Context, id int) *models.ArtworkRecord {
	if c.records != nil {
		if record, ok := c.records.Get(id); ok {
			return &record
		}
	}

	record, err := c.fetchObject(ctx, id)
	if err != nil {
		slog.Debug("Skipping artwork", "object_id", id, "err", err)
		return nil
	}

	if c.records != nil {
		c.records.Add(id, *record)
	}
	return record
}

func (c *Client) fetchObject(ctx context.Context, id int) (*models.ArtworkRecord, error) {
	objectURL := fmt.Sprintf("%s/objects/%s", c.BaseURL, url.PathEscape(strconv.Itoa(id)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, objectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create object request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.NetworkError{Op: "fetch object", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.UpstreamError{Status: resp.StatusCode}
	}

	var record models.ArtworkRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode object %d: %w", id, err)
	}
	if record.ObjectID == 0 {
		record.ObjectID = id
	}

	return &record, nil
}
