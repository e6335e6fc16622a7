package webanalysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"motion-server/internal/models"
)

func TestExtractTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		wantURL string
		wantOK  bool
	}{
		{
			name:    "direct url inside prompt",
			prompt:  "make an intro for https://stripe.com/pricing please",
			wantURL: "https://stripe.com/pricing",
			wantOK:  true,
		},
		{
			name:    "direct url with trailing punctuation",
			prompt:  "check out https://example.com/page.",
			wantURL: "https://example.com/page",
			wantOK:  true,
		},
		{
			name:    "bare domain prompt",
			prompt:  "stripe.com",
			wantURL: "https://stripe.com",
			wantOK:  true,
		},
		{
			name:    "bare subdomain prompt",
			prompt:  "docs.github.com",
			wantURL: "https://docs.github.com",
			wantOK:  true,
		},
		{
			name:   "domain embedded in a sentence is not a target",
			prompt: "make it look like stripe.com does",
			wantOK: false,
		},
		{
			name:   "plain prompt",
			prompt: "add a neon intro scene",
			wantOK: false,
		},
		{
			name:   "version number is not a domain",
			prompt: "1.2",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, ok := ExtractTargetURL(tt.prompt)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantURL, url)
			}
		})
	}
}

func TestHTTPAnalyzer_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/analyze", r.URL.Path)

		var body struct {
			URL string `json:"url"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://stripe.com", body.URL)

		json.NewEncoder(w).Encode(map[string]any{
			"screenshots": models.Screenshots{Desktop: "https://cdn/shot-d.png", Mobile: "https://cdn/shot-m.png"},
			"pageMetadata": models.PageMetadata{
				Title:    "Stripe",
				Headings: []string{"Payments infrastructure"},
			},
		})
	}))
	defer server.Close()

	analyzer := NewHTTPAnalyzer(server.URL, 2*time.Second, zap.NewNop())

	result, err := analyzer.Analyze(context.Background(), "https://stripe.com")

	assert.NoError(t, err)
	assert.Equal(t, "https://stripe.com", result.OriginalURL)
	assert.Equal(t, "https://cdn/shot-d.png", result.Screenshots.Desktop)
	assert.Equal(t, "Stripe", result.PageMetadata.Title)
	assert.False(t, result.AnalyzedAt.IsZero())
}

func TestHTTPAnalyzer_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	analyzer := NewHTTPAnalyzer(server.URL, 2*time.Second, zap.NewNop())

	_, err := analyzer.Analyze(context.Background(), "https://stripe.com")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
