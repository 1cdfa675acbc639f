// Package pdftext extracts plain text from uploaded PDF documents.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument is reported when the payload is empty or carries no text.
var ErrEmptyDocument = errors.New("document contains no text")

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLines      = regexp.MustCompile(`\n[ \n]*\n`)
)

// ExtractError describes why a payload could not be turned into text.
type ExtractError struct {
	Reason string
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Extractor turns PDF bytes into normalised plain text.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of the PDF in data. Malformed input never
// panics; every failure is returned as *ExtractError.
func (e *Extractor) Extract(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", &ExtractError{Reason: "empty payload", Err: ErrEmptyDocument}
	}

	// ledongthuc/pdf panics on some corrupted cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ExtractError{Reason: "parse pdf", Err: fmt.Errorf("pdf reader panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractError{Reason: "open pdf", Err: err}
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", &ExtractError{Reason: "extract plain text", Err: err}
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", &ExtractError{Reason: "read plain text", Err: err}
	}

	text = normalizeWhitespace(string(raw))
	if text == "" {
		return "", &ExtractError{Reason: "extract plain text", Err: ErrEmptyDocument}
	}

	return text, nil
}

func normalizeWhitespace(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
