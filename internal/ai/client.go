package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	pricePerMillionInputTokensUSD  = 0.1
	pricePerMillionOutputTokensUSD = 0.4
)

// ErrGenerationFailed marks a failed AI text generation call.
var ErrGenerationFailed = errors.New("AI text generation failed")

// GenerationParams are optional sampling parameters for one call. Pointers
// distinguish 0/0.0 from "not set".
type GenerationParams struct {
	Temperature   *float64
	MaxTokens     *int
	TopP          *float64
	JSONResponse  bool   // ask the provider for a JSON object response
	ModelOverride string // per-call model override, empty for the configured default
}

// Message is one chat turn sent to the model. Image URLs are attached as
// vision content on providers that support it.
type Message struct {
	Role      string
	Content   string
	ImageURLs []string
}

// UsageInfo reports token usage and estimated cost for one call.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD float64
}

// Client is the interface to an AI chat-completion backend.
type Client interface {
	// Generate runs one chat completion. Purpose labels metrics (brain, add, edit).
	Generate(ctx context.Context, purpose string, systemPrompt string, messages []Message, params GenerationParams) (string, UsageInfo, error)
	// Model returns the configured default model name.
	Model() string
}

// Config selects and configures the backing implementation.
type Config struct {
	ClientType string // "openai" or "ollama"
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
}

// NewClient builds an AI client from configuration.
func NewClient(cfg Config, logger *zap.Logger) (Client, error) {
	switch strings.ToLower(cfg.ClientType) {
	case "openai":
		openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			openaiConfig.BaseURL = cfg.BaseURL
		}
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		client := openaigo.NewClientWithConfig(openaiConfig)
		logger.Info("OpenAI client created",
			zap.String("baseURL", openaiConfig.BaseURL),
			zap.String("model", cfg.Model),
			zap.Duration("timeout", cfg.Timeout))
		return &openAIClient{
			client: client,
			model:  cfg.Model,
			logger: logger.Named("OpenAIClient"),
		}, nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type: '%s'", cfg.ClientType)
	}
}

func calculateCost(promptTokens, completionTokens int) float64 {
	inputCost := float64(promptTokens) * pricePerMillionInputTokensUSD / 1_000_000.0
	outputCost := float64(completionTokens) * pricePerMillionOutputTokensUSD / 1_000_000.0
	return inputCost + outputCost
}

func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 1.0
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// --- OpenAI implementation ---

type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func (c *openAIClient) Model() string { return c.model }

func (c *openAIClient) Generate(ctx context.Context, purpose string, systemPrompt string, messages []Message, params GenerationParams) (string, UsageInfo, error) {
	usage := UsageInfo{}
	model := c.model
	if params.ModelOverride != "" {
		model = params.ModelOverride
	}

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": model, "purpose": purpose, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: empty system prompt", ErrGenerationFailed)
	}

	chatMessages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, msg := range messages {
		chatMessages = append(chatMessages, toOpenAIMessage(msg))
	}

	request := openaigo.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: float32Val(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
		TopP:        float32Val(params.TopP),
	}
	if params.JSONResponse {
		request.ResponseFormat = &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	startTime := time.Now()
	c.logger.Debug("Sending AI request",
		zap.String("model", model),
		zap.String("purpose", purpose),
		zap.Int("systemPromptBytes", len(systemPrompt)),
		zap.Int("messages", len(messages)))

	resp, err := c.client.CreateChatCompletion(ctx, request)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("AI API error",
			zap.String("model", model),
			zap.String("purpose", purpose),
			zap.Duration("duration", duration),
			zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": model, "purpose": purpose, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": model, "purpose": purpose, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: received empty response", ErrGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": model, "purpose": purpose, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": model, "purpose": purpose}).Observe(duration.Seconds())

	generatedText := resp.Choices[0].Message.Content
	c.logger.Debug("AI response received",
		zap.String("model", model),
		zap.String("purpose", purpose),
		zap.Duration("duration", duration),
		zap.Int("responseLength", len(generatedText)),
		zap.String("finishReason", string(resp.Choices[0].FinishReason)))

	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
		usage.TotalTokens = resp.Usage.TotalTokens
	} else {
		// Some OpenAI-compatible providers omit usage; estimate with tiktoken.
		usage = estimateUsage(model, systemPrompt, messages, generatedText)
	}
	usage.EstimatedCostUSD = calculateCost(usage.PromptTokens, usage.CompletionTokens)

	if usage.TotalTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": model, "purpose": purpose}).Observe(float64(usage.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"model": model, "purpose": purpose}).Observe(float64(usage.CompletionTokens))
		aiTotalTokens.With(prometheus.Labels{"model": model, "purpose": purpose}).Observe(float64(usage.TotalTokens))
	}
	if usage.EstimatedCostUSD > 0 {
		aiEstimatedCostUSD.With(prometheus.Labels{"model": model, "purpose": purpose}).Add(usage.EstimatedCostUSD)
	}

	return generatedText, usage, nil
}

func toOpenAIMessage(msg Message) openaigo.ChatCompletionMessage {
	if len(msg.ImageURLs) == 0 {
		return openaigo.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}
	parts := []openaigo.ChatMessagePart{
		{Type: openaigo.ChatMessagePartTypeText, Text: msg.Content},
	}
	for _, imageURL := range msg.ImageURLs {
		parts = append(parts, openaigo.ChatMessagePart{
			Type:     openaigo.ChatMessagePartTypeImageURL,
			ImageURL: &openaigo.ChatMessageImageURL{URL: imageURL},
		})
	}
	return openaigo.ChatCompletionMessage{Role: msg.Role, MultiContent: parts}
}

func estimateUsage(model, systemPrompt string, messages []Message, response string) UsageInfo {
	usage := UsageInfo{}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Unknown model for the tokenizer, skip estimation.
		return usage
	}
	promptTokens := len(tke.Encode(systemPrompt, nil, nil))
	for _, msg := range messages {
		promptTokens += len(tke.Encode(msg.Content, nil, nil))
	}
	usage.PromptTokens = promptTokens
	usage.CompletionTokens = len(tke.Encode(response, nil, nil))
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage
}

// --- Ollama implementation ---

type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg Config, logger *zap.Logger) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	// api.NewClient wants the URL without the /v1 suffix.
	ollamaBaseURL := strings.TrimSuffix(cfg.BaseURL, "/v1")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/")

	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama base URL '%s': %w", ollamaBaseURL, err)
	}

	client := api.NewClient(parsedURL, httpClient)
	logger.Info("Ollama client created",
		zap.String("baseURL", ollamaBaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))

	return &ollamaClient{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

func (c *ollamaClient) Generate(ctx context.Context, purpose string, systemPrompt string, messages []Message, params GenerationParams) (string, UsageInfo, error) {
	usage := UsageInfo{}
	model := c.model
	if params.ModelOverride != "" {
		model = params.ModelOverride
	}

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": model, "purpose": purpose, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: empty system prompt", ErrGenerationFailed)
	}

	chatMessages := []api.Message{
		{Role: "system", Content: systemPrompt},
	}
	for _, msg := range messages {
		if len(msg.ImageURLs) > 0 {
			c.logger.Warn("Ollama backend ignores image URLs", zap.Int("count", len(msg.ImageURLs)))
		}
		chatMessages = append(chatMessages, api.Message{Role: msg.Role, Content: msg.Content})
	}

	req := &api.ChatRequest{
		Model:    model,
		Messages: chatMessages,
		Stream:   func(b bool) *bool { return &b }(false),
		Options: map[string]interface{}{
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"num_predict": intVal(params.MaxTokens),
		},
	}
	if params.JSONResponse {
		req.Format = []byte(`"json"`)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Error("Ollama API timeout",
				zap.Duration("timeout", c.timeout),
				zap.Duration("duration", duration),
				zap.Error(err))
		} else {
			c.logger.Error("Ollama API error", zap.Duration("duration", duration), zap.Error(err))
		}
		aiRequestsTotal.With(prometheus.Labels{"model": model, "purpose": purpose, "status": "error"}).Inc()
		return "", usage, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if resp.Message.Content == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": model, "purpose": purpose, "status": "error_empty_response"}).Inc()
		return "", usage, fmt.Errorf("%w: received empty response", ErrGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": model, "purpose": purpose, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": model, "purpose": purpose}).Observe(duration.Seconds())

	usage.PromptTokens = resp.PromptEvalCount
	usage.CompletionTokens = resp.EvalCount
	usage.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	usage.EstimatedCostUSD = 0 // local backend, no cost

	if usage.TotalTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": model, "purpose": purpose}).Observe(float64(usage.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"model": model, "purpose": purpose}).Observe(float64(usage.CompletionTokens))
		aiTotalTokens.With(prometheus.Labels{"model": model, "purpose": purpose}).Observe(float64(usage.TotalTokens))
	}

	return resp.Message.Content, usage, nil
}
