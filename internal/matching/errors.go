package matching

import (
	"errors"
	"fmt"
)

// MaxResumes is the hard cap on résumés per request.
const MaxResumes = 50

var (
	ErrJobDescriptionRequired = errors.New("job description is required")
	ErrResumesRequired        = errors.New("resumes are required")
	ErrTooManyResumes         = errors.New("too many resumes")
)

// ValidationError rejects a request before any résumé is processed.
// Message is safe to return to the client.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid match request: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidationError(err error, message string) *ValidationError {
	return &ValidationError{Message: message, Err: err}
}
