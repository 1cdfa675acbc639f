// Package matching ranks résumés against a job description using a text-generation provider.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/metrics"
	"github.com/spigell/resume-matcher/internal/utils"
)

const (
	// ParseErrorExplanation is reported for résumés whose PDF could not be read.
	ParseErrorExplanation = "Error parsing PDF file."

	DefaultWorkers      = 5
	MaxWorkers          = 10
	defaultMaxLogLength = 200
)

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}

// Resume is one uploaded file.
type Resume struct {
	Filename string
	Content  []byte
}

// Request is a job description with the résumés to rank against it.
type Request struct {
	JobDescription string
	Resumes        []Resume
}

// Result is the score assigned to one résumé.
type Result struct {
	Filename    string `json:"filename" yaml:"filename"`
	Score       int    `json:"score" yaml:"score"`
	Explanation string `json:"explanation" yaml:"explanation"`
}

// Options tune a Matcher. Zero values fall back to defaults.
type Options struct {
	// Workers caps concurrent provider calls per request.
	Workers int
	// MaxResumes caps résumés per request; it can only lower MaxResumes.
	MaxResumes   int
	MaxLogLength int
}

// Matcher scores every résumé of a request and ranks them.
type Matcher struct {
	extractor  TextExtractor
	generator  ai.Generator
	workers    int
	maxResumes int
	maxLogLen  int
	logger     *zap.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(extractor TextExtractor, generator ai.Generator, opts Options, log *zap.Logger) *Matcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	maxResumes := opts.MaxResumes
	if maxResumes <= 0 || maxResumes > MaxResumes {
		maxResumes = MaxResumes
	}

	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Matcher{
		extractor:  extractor,
		generator:  generator,
		workers:    workers,
		maxResumes: maxResumes,
		maxLogLen:  maxLogLen,
		logger:     logger.WithProvider(log, generator.Provider(), generator.Model()),
	}
}

// Validate checks the request-level invariants.
func (m *Matcher) Validate(req Request) error {
	if strings.TrimSpace(req.JobDescription) == "" {
		return newValidationError(ErrJobDescriptionRequired, "Job description is required.")
	}
	if len(req.Resumes) == 0 {
		return newValidationError(ErrResumesRequired, "Resumes are required.")
	}
	if len(req.Resumes) > m.maxResumes {
		return newValidationError(
			fmt.Errorf("%w: got %d, limit %d", ErrTooManyResumes, len(req.Resumes), m.maxResumes),
			fmt.Sprintf("Maximum %d resumes allowed per upload.", m.maxResumes),
		)
	}
	return nil
}

// Rank scores every résumé and returns them sorted by score, highest first.
// Only request validation fails the call; per-résumé failures become zero-score results.
func (m *Matcher) Rank(ctx context.Context, req Request) ([]Result, error) {
	if err := m.Validate(req); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx, m.logger)
	log.Info("ranking resumes",
		zap.Int("resumes", len(req.Resumes)),
		zap.Int("workers", m.workers),
	)

	results := make([]Result, len(req.Resumes))
	done := make([]bool, len(req.Resumes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for i, resume := range req.Resumes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = m.score(gctx, log, req.JobDescription, resume)
			done[i] = true
			return nil
		})
	}

	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	for i, resume := range req.Resumes {
		if done[i] {
			continue
		}
		results[i] = Result{
			Filename:    resume.Filename,
			Score:       0,
			Explanation: errorExplanation(ctx.Err()),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	log.Info("ranking completed", zap.Int("resumes", len(results)))

	return results, nil
}

func (m *Matcher) score(ctx context.Context, log *zap.Logger, jobDescription string, resume Resume) Result {
	log = log.With(logger.Resume(resume.Filename))

	text, err := m.extractor.Extract(resume.Content)
	if err != nil {
		log.Warn("pdf parsing failed", zap.Error(err))
		metrics.ObserveResume(metrics.OutcomeParseError, 0)
		return Result{Filename: resume.Filename, Score: 0, Explanation: ParseErrorExplanation}
	}

	prompt := BuildPrompt(jobDescription, text)

	log.Debug("generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	completion, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		log.Warn("scoring request failed", zap.Error(err))
		metrics.ObserveResume(metrics.OutcomeAPIError, 0)
		// Routed through ExtractScore so provider failures and "Error:" completions share one path.
		assessment := ExtractScore(errorExplanation(err))
		return Result{Filename: resume.Filename, Score: assessment.Score, Explanation: assessment.Explanation}
	}

	log.Debug("generate content response",
		zap.Int("response_length", utf8.RuneCountInString(completion)),
		zap.String("response_preview", utils.TruncateForLog(completion, m.maxLogLen)),
	)

	assessment := ExtractScore(completion)
	metrics.ObserveResume(metrics.OutcomeScored, assessment.Score)

	log.Info("resume scored", zap.Int("score", assessment.Score))

	return Result{
		Filename:    resume.Filename,
		Score:       assessment.Score,
		Explanation: assessment.Explanation,
	}
}

// errorExplanation renders a failure the way it is reported to clients.
func errorExplanation(err error) string {
	var apiErr *ai.APIError
	switch {
	case errors.As(err, &apiErr):
		return ErrorMarker + " " + apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorMarker + " request timed out"
	case errors.Is(err, context.Canceled):
		return ErrorMarker + " request cancelled"
	case err != nil:
		return ErrorMarker + " " + err.Error()
	default:
		return ErrorMarker + " API request failed."
	}
}
