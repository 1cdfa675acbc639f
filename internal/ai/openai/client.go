// Package openai scores prompts through any OpenAI-compatible chat completion endpoint.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/metrics"
)

const (
	// Provider is the provider name used in logs, metrics and errors.
	Provider     = "openai"
	defaultModel = openai.GPT4oMini
)

// Config holds the OpenAI-compatible provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Generation ai.GenerationConfig
}

// Generator sends a single chat completion per prompt.
type Generator struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	generation ai.GenerationConfig
	logger     *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generator.
func NewGenerator(cfg Config, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = ai.DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		timeout:    timeout,
		generation: cfg.Generation,
		logger:     logger,
	}, nil
}

// Generate implements ai.Generator. Top-k has no chat completion equivalent and is not sent.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &ai.APIError{Provider: Provider, Message: "prompt must not be empty"}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.generation.Temperature,
		TopP:        g.generation.TopP,
		MaxTokens:   int(g.generation.MaxOutputTokens),
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		apiErr := toAPIError(err)
		metrics.ObserveScoring(Provider, g.model, metrics.StatusError, duration)
		g.logger.Debug("chat completion failed",
			zap.Int("status_code", apiErr.StatusCode),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", apiErr
	}

	var parts []string
	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		metrics.ObserveScoring(Provider, g.model, metrics.StatusEmpty, duration)
		return "", ai.NewAPIError(Provider, 0, ai.ErrEmptyResponse)
	}

	metrics.ObserveScoring(Provider, g.model, metrics.StatusOK, duration)
	return strings.Join(parts, "\n"), nil
}

func toAPIError(err error) *ai.APIError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = http.StatusText(apiErr.HTTPStatusCode)
		}
		return &ai.APIError{Provider: Provider, StatusCode: apiErr.HTTPStatusCode, Message: message, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		message := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			message = reqErr.Err.Error()
		}
		return &ai.APIError{Provider: Provider, StatusCode: reqErr.HTTPStatusCode, Message: message, Err: err}
	}

	return ai.NewAPIError(Provider, 0, err)
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

// Provider returns the provider name.
func (g *Generator) Provider() string { return Provider }
