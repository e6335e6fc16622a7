package webanalysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"motion-server/internal/models"
)

// Analyzer turns a URL into screenshots plus page metadata for the context
// packet. Failures are expected and non-fatal: the caller degrades to no web
// context.
type Analyzer interface {
	Analyze(ctx context.Context, targetURL string) (*models.WebContext, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ Analyzer = (*HTTPAnalyzer)(nil)

// HTTPAnalyzer calls the external web-analysis service.
type HTTPAnalyzer struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPAnalyzer creates the HTTP client for the web-analysis service.
func NewHTTPAnalyzer(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("WebAnalyzer"),
	}
}

// Analyze requests screenshots and page metadata for the given URL.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, targetURL string) (*models.WebContext, error) {
	log := a.logger.With(zap.String("url", targetURL))
	log.Debug("Requesting web analysis")

	requestBody := struct {
		URL string `json:"url"`
	}{URL: targetURL}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/v1/analyze", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.Warn("Web analysis request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to execute analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Web analysis returned non-OK status", zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("web analysis service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Screenshots  models.Screenshots  `json:"screenshots"`
		PageMetadata models.PageMetadata `json:"pageMetadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}

	log.Debug("Web analysis complete", zap.String("title", payload.PageMetadata.Title))
	return &models.WebContext{
		OriginalURL:  targetURL,
		Screenshots:  payload.Screenshots,
		PageMetadata: payload.PageMetadata,
		AnalyzedAt:   time.Now().UTC(),
	}, nil
}
