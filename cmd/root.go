package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/matching"
)

const (
	app       = "resume-matcher"
	envPrefix = "RESUME_MATCHER"
)

type Config struct {
	Server   *ServerConfig   `mapstructure:"server"`
	Matching *MatchingConfig `mapstructure:"matching"`
	AI       *AIConfig       `mapstructure:"ai"`
}

type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	MaxUploadMB     int64         `mapstructure:"max-upload-mb"`
}

type MatchingConfig struct {
	MaxResumes int `mapstructure:"max-resumes"`
	Workers    int `mapstructure:"workers"`
}

type AIConfig struct {
	Provider     string              `mapstructure:"provider"`
	Timeout      time.Duration       `mapstructure:"timeout"`
	MaxLogLength int                 `mapstructure:"max-log-length"`
	Generation   ai.GenerationConfig `mapstructure:"generation"`
	Gemini       *GeminiConfig       `mapstructure:"gemini"`
	OpenAI       *OpenAIConfig       `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	APIVersion string `mapstructure:"api-version"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-matcher ranks PDF résumés against a job description with an LLM",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8000")
	v.SetDefault("server.read-timeout", 30*time.Second)
	// A full batch may take several provider round trips per worker.
	v.SetDefault("server.write-timeout", 10*time.Minute)
	v.SetDefault("server.shutdown-timeout", 15*time.Second)
	v.SetDefault("server.max-upload-mb", 64)

	v.SetDefault("matching.max-resumes", matching.MaxResumes)
	v.SetDefault("matching.workers", matching.DefaultWorkers)

	gen := ai.DefaultGenerationConfig()
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", ai.DefaultTimeout)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.generation.temperature", gen.Temperature)
	v.SetDefault("ai.generation.max-output-tokens", gen.MaxOutputTokens)
	v.SetDefault("ai.generation.top-p", gen.TopP)
	v.SetDefault("ai.generation.top-k", gen.TopK)

	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.base-url", "")
	v.SetDefault("ai.gemini.api-version", "")

	v.SetDefault("ai.openai.api-key", "")
	v.SetDefault("ai.openai.api-key-file", "")
	v.SetDefault("ai.openai.model", "")
	v.SetDefault("ai.openai.base-url", "")
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Provider keys also honour the names the SDKs document.
	bindings := map[string][]string{
		"ai.gemini.api-key":      {envPrefix + "_AI_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"ai.gemini.api-key-file": {envPrefix + "_AI_GEMINI_API_KEY_FILE", "GEMINI_API_KEY_FILE"},
		"ai.openai.api-key":      {envPrefix + "_AI_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"ai.openai.api-key-file": {envPrefix + "_AI_OPENAI_API_KEY_FILE", "OPENAI_API_KEY_FILE"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}

	return nil
}

func initConfig() {
	// The version command works without any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit --config everything can come from defaults and the environment.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the ranges the matcher and server rely on.
func (c *Config) Validate() error {
	if c == nil || c.Server == nil || c.Matching == nil || c.AI == nil {
		return errors.New("config is incomplete")
	}

	var errs []error

	if strings.TrimSpace(c.Server.Listen) == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max-upload-mb must be positive, got %d", c.Server.MaxUploadMB))
	}

	if c.Matching.Workers < 1 || c.Matching.Workers > matching.MaxWorkers {
		errs = append(errs, fmt.Errorf("matching.workers must be between 1 and %d, got %d", matching.MaxWorkers, c.Matching.Workers))
	}
	if c.Matching.MaxResumes < 1 || c.Matching.MaxResumes > matching.MaxResumes {
		errs = append(errs, fmt.Errorf("matching.max-resumes must be between 1 and %d, got %d", matching.MaxResumes, c.Matching.MaxResumes))
	}

	switch c.provider() {
	case providerGemini:
		if c.AI.Gemini == nil {
			errs = append(errs, errors.New("ai.gemini section is required"))
		}
	case providerOpenAI:
		if c.AI.OpenAI == nil {
			errs = append(errs, errors.New("ai.openai section is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported ai provider: %s", c.AI.Provider))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("ai.timeout must be positive"))
	}
	if c.AI.Generation.MaxOutputTokens <= 0 {
		errs = append(errs, errors.New("ai.generation.max-output-tokens must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) provider() string {
	provider := strings.TrimSpace(strings.ToLower(c.AI.Provider))
	if provider == "" {
		return providerGemini
	}
	return provider
}
