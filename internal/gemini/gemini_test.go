package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/lehigh-university-libraries/metgallery/internal/providers"
	"google.golang.org/api/googleapi"
)

func TestGenerateTextWithoutKey(t *testing.T) {
	_, err := New("  ").GenerateText(context.Background(), providers.Config{Prompt: "hi"})
	if !errors.Is(err, providers.ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "quota exhausted",
			err:  &googleapi.Error{Code: http.StatusTooManyRequests, Message: "Resource has been exhausted"},
			want: providers.ErrRateLimited,
		},
		{
			name: "bad key",
			err:  &googleapi.Error{Code: http.StatusForbidden, Message: "API key not valid"},
			want: providers.ErrCredential,
		},
		{
			name: "other failure",
			err:  &googleapi.Error{Code: http.StatusInternalServerError},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				if errors.Is(got, providers.ErrRateLimited) || errors.Is(got, providers.ErrCredential) {
					t.Errorf("Expected unclassified error, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
