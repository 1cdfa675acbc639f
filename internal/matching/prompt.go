package matching

import (
	_ "embed"
	"strings"
	"unicode"
)

//go:embed prompt.md
var promptTemplate string

const (
	jobDescriptionPlaceholder = "{{JOB_DESCRIPTION}}"
	resumeTextPlaceholder     = "{{RESUME_TEXT}}"
)

// BuildPrompt renders the scoring instructions for one résumé.
// Both inputs are embedded verbatim after control characters are stripped.
func BuildPrompt(jobDescription, resumeText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job Description:\n" + jobDescriptionPlaceholder + "\n\nResume:\n" + resumeTextPlaceholder +
			"\n\nProvide a score out of 100. Format it as \"Score: [Number]\". Include a brief explanation."
	}

	// Both values are substituted in one pass so text inside the job
	// description that looks like a placeholder is left alone.
	replacer := strings.NewReplacer(
		jobDescriptionPlaceholder, sanitize(jobDescription),
		resumeTextPlaceholder, sanitize(resumeText),
	)
	return strings.TrimSpace(replacer.Replace(template))
}

// sanitize normalises line endings and drops control characters that would
// otherwise travel to the provider inside the JSON payload.
func sanitize(s string) string {
	s = strings.ToValidUTF8(s, "�")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}
