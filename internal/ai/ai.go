// Package ai defines the contract shared by the text-generation providers used
// to score résumés.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 60 * time.Second

// Generator sends a prompt to a text-generation service and returns the raw completion.
// Implementations make exactly one attempt per call and report failures as *APIError.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

// GenerationConfig is the fixed sampling configuration sent with every request.
type GenerationConfig struct {
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int32   `mapstructure:"max-output-tokens"`
	TopP            float32 `mapstructure:"top-p"`
	TopK            float32 `mapstructure:"top-k"`
}

// DefaultGenerationConfig keeps output close to deterministic and short.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.3,
		MaxOutputTokens: 800,
		TopP:            0.9,
		TopK:            1,
	}
}

// ErrEmptyResponse is reported when the provider answered without any text.
var ErrEmptyResponse = errors.New("unexpected api response: no text returned")

// APIError describes a failed generation request: transport failure, non-2xx
// status or an error payload returned by the provider.
type APIError struct {
	Provider string
	// StatusCode is zero when the request never got an HTTP response.
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError wraps err as *APIError unless it already is one.
func NewAPIError(provider string, status int, err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	message := "request failed"
	if err != nil {
		message = err.Error()
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		message = "request timed out"
	case errors.Is(err, context.Canceled):
		message = "request cancelled"
	}

	return &APIError{Provider: provider, StatusCode: status, Message: message, Err: err}
}
