package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNewAPIError(t *testing.T) {
	t.Parallel()

	base := errors.New("connection refused")

	tests := []struct {
		name        string
		err         error
		status      int
		wantMessage string
		wantString  string
	}{
		{
			name:        "transport",
			err:         base,
			wantMessage: "connection refused",
			wantString:  "gemini api error: connection refused",
		},
		{
			name:        "status",
			err:         errors.New("quota exceeded"),
			status:      429,
			wantMessage: "quota exceeded",
			wantString:  "gemini api error (status 429): quota exceeded",
		},
		{
			name:        "timeout",
			err:         fmt.Errorf("generate content: %w", context.DeadlineExceeded),
			wantMessage: "request timed out",
			wantString:  "gemini api error: request timed out",
		},
		{
			name:        "nil",
			err:         nil,
			wantMessage: "request failed",
			wantString:  "gemini api error: request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NewAPIError("gemini", tt.status, tt.err)
			if got.Message != tt.wantMessage {
				t.Fatalf("expected message %q, got %q", tt.wantMessage, got.Message)
			}
			if got.Error() != tt.wantString {
				t.Fatalf("expected %q, got %q", tt.wantString, got.Error())
			}
			if tt.err != nil && !errors.Is(got, tt.err) {
				t.Fatalf("expected wrapped error to be preserved")
			}
		})
	}
}

func TestNewAPIErrorKeepsExisting(t *testing.T) {
	original := &APIError{Provider: "openai", StatusCode: 500, Message: "boom"}

	got := NewAPIError("gemini", 0, fmt.Errorf("wrapped: %w", original))
	if got != original {
		t.Fatalf("expected existing *APIError to be returned, got %+v", got)
	}
}
