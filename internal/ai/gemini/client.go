package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/metrics"
)

const (
	// Provider is the provider name used in logs, metrics and errors.
	Provider     = "gemini"
	defaultModel = "gemini-2.0-flash"
)

// contentModels is the subset of genai.Models used by the generator.
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the Gemini generator.
type Config struct {
	APIKey string
	Model  string
	// BaseURL and APIVersion override the SDK defaults when set.
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	Generation ai.GenerationConfig
}

// Generator wraps the Google GenAI client to score prompts with a single request each.
type Generator struct {
	models  contentModels
	model   string
	timeout time.Duration
	config  *genai.GenerateContentConfig
	logger  *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = ai.DefaultTimeout
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimSpace(cfg.BaseURL),
			APIVersion: strings.TrimSpace(cfg.APIVersion),
		},
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg.Model, timeout, cfg.Generation, logger), nil
}

func newGenerator(models contentModels, model string, timeout time.Duration, gen ai.GenerationConfig, logger *zap.Logger) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		models:  models,
		model:   model,
		timeout: timeout,
		config:  generateContentConfig(gen),
		logger:  logger,
	}
}

func generateContentConfig(gen ai.GenerationConfig) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(gen.Temperature),
		TopP:            genai.Ptr(gen.TopP),
		TopK:            genai.Ptr(gen.TopK),
		MaxOutputTokens: gen.MaxOutputTokens,
	}
}

// Generate sends the prompt to Gemini and returns the joined text of all candidates.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", &ai.APIError{Provider: Provider, Message: "gemini generator is not initialized"}
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &ai.APIError{Provider: Provider, Message: "prompt must not be empty"}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	duration := time.Since(start)

	if err != nil {
		apiErr := toAPIError(err)
		metrics.ObserveScoring(Provider, g.model, metrics.StatusError, duration)
		g.logger.Debug("gemini generate content failed",
			zap.Int("status_code", apiErr.StatusCode),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", apiErr
	}

	output := joinCandidates(resp)
	if output == "" {
		metrics.ObserveScoring(Provider, g.model, metrics.StatusEmpty, duration)
		return "", ai.NewAPIError(Provider, 0, ai.ErrEmptyResponse)
	}

	metrics.ObserveScoring(Provider, g.model, metrics.StatusOK, duration)
	return output, nil
}

func joinCandidates(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func toAPIError(err error) *ai.APIError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ai.APIError{Provider: Provider, StatusCode: apiErr.Code, Message: apiErrorMessage(apiErr), Err: err}
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &ai.APIError{Provider: Provider, StatusCode: apiErrPtr.Code, Message: apiErrorMessage(*apiErrPtr), Err: err}
	}

	return ai.NewAPIError(Provider, 0, err)
}

func apiErrorMessage(err genai.APIError) string {
	if msg := strings.TrimSpace(err.Message); msg != "" {
		return msg
	}
	if status := strings.TrimSpace(err.Status); status != "" {
		return status
	}
	return http.StatusText(err.Code)
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Provider returns the provider name.
func (g *Generator) Provider() string { return Provider }
