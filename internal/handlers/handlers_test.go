package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lehigh-university-libraries/metgallery/internal/providers"
	"github.com/lehigh-university-libraries/metgallery/internal/proxy"
)

const secretKey = "AIzaSy-super-secret"

// mockProvider implements providers.Provider for testing
type mockProvider struct {
	calls atomic.Int32
	text  string
	err   error
}

func (m *mockProvider) GenerateText(ctx context.Context, config providers.Config) (string, error) {
	m.calls.Add(1)
	return m.text, m.err
}

func newTestServer(t *testing.T, provider providers.Provider) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(proxy.NewService(provider), t.TempDir()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/api/gemini", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Response is not JSON: %v", err)
	}
	return resp, decoded
}

func TestHandleInsightStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		provider   providers.Provider
		body       string
		wantStatus int
	}{
		{
			name:       "empty prompt",
			provider:   &mockProvider{text: "x"},
			body:       `{"prompt":""}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing prompt",
			provider:   &mockProvider{text: "x"},
			body:       `{"objectID":12}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			provider:   &mockProvider{text: "x"},
			body:       `{"prompt":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "quota exhausted",
			provider:   &mockProvider{err: errors.New("googleapi: Error 429: quota exceeded for " + secretKey)},
			body:       `{"prompt":"tell me","objectID":12}`,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "no provider configured",
			provider:   nil,
			body:       `{"prompt":"tell me"}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "rejected key",
			provider:   &mockProvider{err: errors.New("API key not valid: " + secretKey)},
			body:       `{"prompt":"tell me"}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "generic upstream failure",
			provider:   &mockProvider{err: errors.New("stream reset " + secretKey)},
			body:       `{"prompt":"tell me","objectID":"12"}`,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.provider)
			resp, body := post(t, srv.URL, tt.body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			msg, _ := body["error"].(string)
			if msg == "" {
				t.Error("Expected error message in body")
			}
			if strings.Contains(msg, secretKey) {
				t.Errorf("Error body leaked upstream details: %q", msg)
			}
		})
	}
}

func TestHandleInsightSuccessAndCache(t *testing.T) {
	provider := &mockProvider{text: "Painted in Arles in 1888."}
	srv := newTestServer(t, provider)

	for i := 0; i < 2; i++ {
		resp, body := post(t, srv.URL, `{"prompt":"tell me","objectID":436524}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if body["text"] != "Painted in Arles in 1888." {
			t.Errorf("Unexpected text %v", body["text"])
		}
	}

	if got := provider.calls.Load(); got != 1 {
		t.Errorf("Expected 1 upstream call, got %d", got)
	}
}

func TestHandleInsightRejectsOtherMethods(t *testing.T) {
	srv := newTestServer(t, &mockProvider{text: "x"})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req, _ := http.NewRequest(method, srv.URL+"/api/gemini", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s failed: %v", method, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", method, resp.StatusCode)
		}
		if resp.Header.Get("Allow") != http.MethodPost {
			t.Errorf("%s: expected Allow: POST, got %q", method, resp.Header.Get("Allow"))
		}
	}
}

func TestHealthcheck(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthcheck")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestHandleStatic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>gallery</h1>"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0644); err != nil {
		t.Fatal(err)
	}
	h := New(proxy.NewService(nil), dir)

	tests := []struct {
		path        string
		wantStatus  int
		contentType string
	}{
		{path: "/", wantStatus: http.StatusOK, contentType: "text/html"},
		{path: "/app.js", wantStatus: http.StatusOK, contentType: "application/javascript"},
		{path: "/static/app.js", wantStatus: http.StatusOK, contentType: "application/javascript"},
		{path: "/missing.css", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleStatic(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.contentType != "" && !strings.HasPrefix(rec.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("Expected content type %s, got %s", tt.contentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestHandleStaticRejectsTraversal(t *testing.T) {
	h := New(proxy.NewService(nil), t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../secret"
	rec := httptest.NewRecorder()
	h.HandleStatic(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}
