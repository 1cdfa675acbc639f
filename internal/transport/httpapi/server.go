// Package httpapi exposes the résumé matcher over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	logpkg "github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/metrics"
)

const (
	fieldJobDescription = "job_description"
	fieldResumes        = "resumes[]"
	fieldResumesPlain   = "resumes"

	// DefaultMaxUploadBytes bounds the whole multipart body.
	DefaultMaxUploadBytes = 64 << 20
	// Parts above this size spill to temporary files.
	multipartMemory = 32 << 20
)

// Ranker validates and ranks match requests.
type Ranker interface {
	Validate(req matching.Request) error
	Rank(ctx context.Context, req matching.Request) ([]matching.Result, error)
}

// ErrorResponse is the body returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// Server serves the match endpoint.
type Server struct {
	ranker         Ranker
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(ranker Ranker, maxUploadBytes int64, logger *zap.Logger) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		ranker:         ranker,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Routes builds the router with all middleware attached.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Post("/match", s.Match)
	// Path used by the legacy browser frontend.
	r.Post("/backend.php", s.Match)
	r.Get("/healthz", s.Health)
	r.Get("/metrics", s.Metrics)

	return r
}

// Match handles POST /match.
func (s *Server) Match(w http.ResponseWriter, r *http.Request) {
	log := logpkg.FromContext(r.Context(), s.logger)

	if r.ContentLength > s.maxUploadBytes {
		s.rejectTooLarge(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	err := r.ParseMultipartForm(multipartMemory)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	case errors.As(err, &tooLarge):
		s.rejectTooLarge(w)
		return
	case errors.Is(err, http.ErrNotMultipart):
		// Form-encoded bodies carry fields but never files; validation reports what is missing.
	default:
		log.Debug("invalid multipart form", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}

	headers := uploadedFiles(r.MultipartForm)

	req := matching.Request{
		JobDescription: r.FormValue(fieldJobDescription),
		Resumes:        make([]matching.Resume, len(headers)),
	}
	for i, fh := range headers {
		req.Resumes[i].Filename = fh.Filename
	}

	// Counts are checked before any upload is read into memory.
	if err := s.ranker.Validate(req); err != nil {
		s.rejectRequest(w, log, err)
		return
	}

	for i, fh := range headers {
		content, err := readFile(fh)
		if err != nil {
			// An unreadable part is handed on empty and reported as a parse failure.
			log.Warn("failed to read uploaded file", logpkg.Resume(fh.Filename), zap.Error(err))
			continue
		}
		req.Resumes[i].Content = content
	}

	results, err := s.ranker.Rank(r.Context(), req)
	if err != nil {
		s.rejectRequest(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) rejectRequest(w http.ResponseWriter, log *zap.Logger, err error) {
	var validationErr *matching.ValidationError
	if errors.As(err, &validationErr) {
		log.Info("request rejected", zap.String("reason", validationErr.Message))
		writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	log.Error("match request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) rejectTooLarge(w http.ResponseWriter) {
	writeError(w, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("Upload exceeds the limit of %d MB.", max(1, s.maxUploadBytes>>20)))
}

// uploadedFiles collects résumé parts under both accepted field names,
// skipping file inputs the browser submitted without a selection.
func uploadedFiles(form *multipart.Form) []*multipart.FileHeader {
	var files []*multipart.FileHeader
	if form == nil {
		return files
	}
	for _, field := range []string{fieldResumes, fieldResumesPlain} {
		for _, fh := range form.File[field] {
			if strings.TrimSpace(fh.Filename) == "" && fh.Size == 0 {
				continue
			}
			files = append(files, fh)
		}
	}
	return files
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
