package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/ai/openai"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/pdftext"
	"github.com/spigell/resume-matcher/internal/secrets"
)

const (
	providerGemini = gemini.Provider
	providerOpenAI = openai.Provider
)

func newMatcher(ctx context.Context, config *Config, logger *zap.Logger) (*matching.Matcher, error) {
	generator, err := newGenerator(ctx, config, logger)
	if err != nil {
		return nil, fmt.Errorf("building ai generator: %w", err)
	}

	return matching.NewMatcher(pdftext.New(), generator, matching.Options{
		Workers:      config.Matching.Workers,
		MaxResumes:   config.Matching.MaxResumes,
		MaxLogLength: config.AI.MaxLogLength,
	}, logger), nil
}

func newGenerator(ctx context.Context, config *Config, logger *zap.Logger) (ai.Generator, error) {
	cfg := config.AI

	switch config.provider() {
	case providerGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
		}

		generator, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:     apiKey,
			Model:      cfg.Gemini.Model,
			BaseURL:    cfg.Gemini.BaseURL,
			APIVersion: cfg.Gemini.APIVersion,
			Timeout:    cfg.Timeout,
			Generation: cfg.Generation,
		}, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil

	case providerOpenAI:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			Env:   "OPENAI_API_KEY",
			File:  cfg.OpenAI.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file, OPENAI_API_KEY_FILE or OPENAI_API_KEY)", err)
		}

		generator, err := openai.NewGenerator(openai.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			Timeout:    cfg.Timeout,
			Generation: cfg.Generation,
		}, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}
