package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	t.Setenv("TEST_SECRET_ENV", "from-env")

	got, err := Load(Source{Name: "api key", File: path, Value: "inline", Env: "TEST_SECRET_ENV"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}

func TestLoadFallsBackToValueThenEnv(t *testing.T) {
	t.Setenv("TEST_SECRET_ENV", "  from-env ")

	got, err := Load(Source{Name: "api key", Value: " inline ", Env: "TEST_SECRET_ENV"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inline" {
		t.Fatalf("expected inline secret, got %q", got)
	}

	got, err = Load(Source{Name: "api key", Env: "TEST_SECRET_ENV"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("expected env secret, got %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("TEST_SECRET_EMPTY", "")

	emptyFile := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	tests := []struct {
		name    string
		src     Source
		wantSub string
	}{
		{
			name:    "nothing configured",
			src:     Source{Name: "gemini api key"},
			wantSub: "gemini api key is not configured",
		},
		{
			name:    "default name",
			src:     Source{},
			wantSub: "secret is not configured",
		},
		{
			name:    "empty env",
			src:     Source{Name: "openai api key", Env: "TEST_SECRET_EMPTY"},
			wantSub: "TEST_SECRET_EMPTY",
		},
		{
			name:    "empty file",
			src:     Source{Name: "key", File: emptyFile},
			wantSub: "is empty",
		},
		{
			name:    "missing file",
			src:     Source{Name: "key", File: filepath.Join(t.TempDir(), "missing")},
			wantSub: "reading key from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("expected error to contain %q, got %q", tt.wantSub, err.Error())
			}
		})
	}
}
