package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

var errEmptyJobDescription = errors.New("job description must not be empty")

var rankCmd = &cobra.Command{
	Use:   "rank [flags] resume.pdf [resume.pdf...]",
	Short: "Rank local PDF résumés against a job description",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rank(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("job", "", "job description text")
	rankCmd.Flags().String("job-file", "", "file with the job description")
	rankCmd.Flags().StringP("output", "o", outputJSON, "output format: json or yaml")
	rankCmd.Flags().IntP("workers", "w", 0, "concurrent provider calls (default is matching.workers)")

	viper.BindPFlag("matching.workers", rankCmd.Flags().Lookup("workers"))
}

func rank(cmd *cobra.Command, paths []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer func() { _ = logger.Sync() }()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	output, _ := cmd.Flags().GetString("output")
	output = strings.ToLower(strings.TrimSpace(output))
	if output != outputJSON && output != outputYAML {
		logger.Fatal("unsupported output format", zap.String("output", output))
	}

	job, _ := cmd.Flags().GetString("job")
	jobFile, _ := cmd.Flags().GetString("job-file")

	jobDescription, err := resolveJobDescription(job, jobFile, promptJobDescription)
	if err != nil {
		logger.Fatal("getting a job description", zap.Error(err))
	}

	resumes, err := readResumes(paths)
	if err != nil {
		logger.Fatal("reading resumes", zap.Error(err))
	}

	matcher, err := newMatcher(ctx, config, logger)
	if err != nil {
		logger.Fatal("building matcher", zap.Error(err))
	}

	results, err := matcher.Rank(ctx, matching.Request{
		JobDescription: jobDescription,
		Resumes:        resumes,
	})
	if err != nil {
		logger.Fatal("ranking resumes", zap.Error(err))
	}

	if err := writeResults(cmd.OutOrStdout(), output, results); err != nil {
		logger.Fatal("writing results", zap.Error(err))
	}
}

// resolveJobDescription prefers --job, then --job-file, then asks interactively.
func resolveJobDescription(job, jobFile string, ask func() (string, error)) (string, error) {
	if text := strings.TrimSpace(job); text != "" {
		return text, nil
	}

	if path := strings.TrimSpace(jobFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading job description file %q: %w", path, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", fmt.Errorf("job description file %q: %w", path, errEmptyJobDescription)
		}
		return text, nil
	}

	text, err := ask()
	if err != nil {
		return "", err
	}
	if text = strings.TrimSpace(text); text == "" {
		return "", errEmptyJobDescription
	}
	return text, nil
}

func promptJobDescription() (string, error) {
	prompt := promptui.Prompt{
		Label: "Job description",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errEmptyJobDescription
			}
			return nil
		},
	}

	text, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return text, nil
}

func readResumes(paths []string) ([]matching.Resume, error) {
	resumes := make([]matching.Resume, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading resume %q: %w", path, err)
		}
		resumes = append(resumes, matching.Resume{
			Filename: filepath.Base(path),
			Content:  data,
		})
	}
	return resumes, nil
}

func writeResults(w io.Writer, format string, results []matching.Result) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
