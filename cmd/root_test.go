package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()

	v := viper.New()
	setDefaults(v)
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	config, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Server.Listen != ":8000" {
		t.Fatalf("unexpected listen address %q", config.Server.Listen)
	}
	if config.Server.WriteTimeout != 10*time.Minute {
		t.Fatalf("unexpected write timeout %s", config.Server.WriteTimeout)
	}
	if config.Server.MaxUploadMB != 64 {
		t.Fatalf("unexpected upload limit %d", config.Server.MaxUploadMB)
	}
	if config.Matching.Workers != 5 || config.Matching.MaxResumes != 50 {
		t.Fatalf("unexpected matching config %+v", config.Matching)
	}
	if config.AI.Timeout != 60*time.Second {
		t.Fatalf("unexpected ai timeout %s", config.AI.Timeout)
	}
	if config.provider() != providerGemini || config.AI.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected provider %q model %q", config.provider(), config.AI.Gemini.Model)
	}

	gen := config.AI.Generation
	if gen.Temperature != 0.3 || gen.MaxOutputTokens != 800 || gen.TopP != 0.9 || gen.TopK != 1 {
		t.Fatalf("unexpected generation config %+v", gen)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	t.Parallel()

	v := newTestViper(t)
	v.SetConfigType("yaml")
	err := v.ReadConfig(strings.NewReader(`
server:
  listen: 127.0.0.1:9000
  write-timeout: 5m
matching:
  workers: 3
ai:
  provider: openai
  timeout: 20s
  openai:
    model: gpt-4o
    base-url: http://localhost:11434/v1
`))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}

	config, err := loadConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Server.Listen != "127.0.0.1:9000" || config.Server.WriteTimeout != 5*time.Minute {
		t.Fatalf("unexpected server config %+v", config.Server)
	}
	if config.Matching.Workers != 3 {
		t.Fatalf("unexpected workers %d", config.Matching.Workers)
	}
	if config.provider() != providerOpenAI || config.AI.Timeout != 20*time.Second {
		t.Fatalf("unexpected ai config %+v", config.AI)
	}
	if config.AI.OpenAI.Model != "gpt-4o" || config.AI.OpenAI.BaseURL != "http://localhost:11434/v1" {
		t.Fatalf("unexpected openai config %+v", config.AI.OpenAI)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{name: "too many workers", key: "matching.workers", value: 11, wantErr: "matching.workers"},
		{name: "no workers", key: "matching.workers", value: 0, wantErr: "matching.workers"},
		{name: "resume cap above hard limit", key: "matching.max-resumes", value: 51, wantErr: "matching.max-resumes"},
		{name: "unknown provider", key: "ai.provider", value: "claude", wantErr: "unsupported ai provider"},
		{name: "empty listen", key: "server.listen", value: " ", wantErr: "server.listen"},
		{name: "zero upload limit", key: "server.max-upload-mb", value: 0, wantErr: "server.max-upload-mb"},
		{name: "zero ai timeout", key: "ai.timeout", value: "0s", wantErr: "ai.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := newTestViper(t)
			v.Set(tt.key, tt.value)

			_, err := loadConfig(v)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBindEnvProviderKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-sdk-env")
	t.Setenv("RESUME_MATCHER_MATCHING_WORKERS", "7")

	v := newTestViper(t)
	if err := bindEnv(v); err != nil {
		t.Fatalf("bind env: %v", err)
	}

	config, err := loadConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.AI.Gemini.APIKey != "from-sdk-env" {
		t.Fatalf("expected GEMINI_API_KEY to populate ai.gemini.api-key, got %q", config.AI.Gemini.APIKey)
	}
	if config.Matching.Workers != 7 {
		t.Fatalf("expected prefixed env to override workers, got %d", config.Matching.Workers)
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	for _, provider := range []string{providerGemini, providerOpenAI} {
		v := newTestViper(t)
		v.Set("ai.provider", provider)

		config, err := loadConfig(v)
		if err != nil {
			t.Fatalf("%s: unexpected config error: %v", provider, err)
		}

		if _, err := newGenerator(t.Context(), config, nil); err == nil || !strings.Contains(err.Error(), "api key is not configured") {
			t.Fatalf("%s: expected missing api key error, got %v", provider, err)
		}
	}
}
