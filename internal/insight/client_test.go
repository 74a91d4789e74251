package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lehigh-university-libraries/metgallery/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		record   models.ArtworkRecord
		expected string
	}{
		{
			name: "all fields present",
			record: models.ArtworkRecord{
				Title:             "Sunflowers",
				ArtistDisplayName: "Vincent van Gogh",
				ObjectDate:        "1887",
			},
			expected: `Tell me an interesting fact or provide a brief analysis about the artwork titled "Sunflowers" by Vincent van Gogh, created around 1887. Focus on its historical context, artistic style, or significance. Keep it concise, around 2-3 sentences.`,
		},
		{
			name:     "falls back for missing artist and date",
			record:   models.ArtworkRecord{Title: "Bowl"},
			expected: `Tell me an interesting fact or provide a brief analysis about the artwork titled "Bowl" by an unknown artist, created around an unknown date. Focus on its historical context, artistic style, or significance. Keep it concise, around 2-3 sentences.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildPrompt(&tt.record); got != tt.expected {
				t.Errorf("Expected:\n%s\nGot:\n%s", tt.expected, got)
			}
		})
	}
}

func TestRequestInsightValidatesBeforeNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	for _, record := range []*models.ArtworkRecord{nil, {Title: ""}, {Title: "   "}} {
		_, err := c.RequestInsight(context.Background(), record)
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("Expected ValidationError for %+v, got %v", record, err)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("Expected zero network calls, got %d", got)
	}
}

func TestRequestInsightSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Invalid body: %v", err)
			return
		}
		if body["objectID"] != float64(436524) {
			t.Errorf("Expected numeric objectID, got %v", body["objectID"])
		}
		if body["prompt"] == "" {
			t.Error("Expected prompt")
		}
		fmt.Fprint(w, `{"text":"Painted in Arles."}`)
	}))
	defer srv.Close()

	text, err := NewClient(srv.URL, srv.Client()).RequestInsight(context.Background(), &models.ArtworkRecord{
		ObjectID: 436524,
		Title:    "Sunflowers",
	})
	if err != nil {
		t.Fatalf("RequestInsight failed: %v", err)
	}
	if text != "Painted in Arles." {
		t.Errorf("Unexpected text %q", text)
	}
}

func TestRequestInsightErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		rateLimited bool
	}{
		{
			name:        "rate limited",
			status:      http.StatusTooManyRequests,
			body:        `{"error":"Rate limit exceeded. Please try again later."}`,
			wantMessage: "Rate limit exceeded. Please try again later.",
			rateLimited: true,
		},
		{
			name:        "generic failure",
			status:      http.StatusInternalServerError,
			body:        `{"error":"Failed to generate AI insights. Please try again."}`,
			wantMessage: "Failed to generate AI insights. Please try again.",
		},
		{
			name:        "non-json body",
			status:      http.StatusBadGateway,
			body:        "bad gateway",
			wantMessage: "bad gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, srv.Client()).RequestInsight(context.Background(), &models.ArtworkRecord{Title: "Vase"})
			var upstream *models.UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("Expected UpstreamError, got %v", err)
			}
			if upstream.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, upstream.Status)
			}
			if upstream.Message != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, upstream.Message)
			}
			if upstream.RateLimited() != tt.rateLimited {
				t.Errorf("Expected RateLimited=%v", tt.rateLimited)
			}
		})
	}
}

func TestRequestInsightNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).RequestInsight(context.Background(), &models.ArtworkRecord{Title: "Vase"})
	var netErr *models.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected NetworkError, got %v", err)
	}
}
