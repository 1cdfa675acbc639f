package matching

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// ErrorMarker prefixes completions that carry an upstream failure instead of a model answer.
	ErrorMarker = "Error:"
	// ExplanationNotFound is used when the completion has no Score:/Rating: label.
	ExplanationNotFound = "Explanation not found."

	minScore = 0
	maxScore = 100
)

// scorePatterns are tried in order; the first match wins.
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Score:\s*\[?(\d{1,3})\]?`),
	regexp.MustCompile(`(?i)Score\s*[-:]?\s*(\d{1,3})`),
	regexp.MustCompile(`(?i)(\d{1,3})\s*/\s*100`),
	regexp.MustCompile(`(?i)Rating:\s*(\d{1,3})`),
}

var (
	explanationSplit = regexp.MustCompile(`(?i)Score:|Rating:`)
	leadingNumber    = regexp.MustCompile(`^\[?\d+\]?\s*`)
)

// Assessment is the score and explanation parsed from a completion.
type Assessment struct {
	Score       int
	Explanation string
}

// ExtractScore parses a free-text completion into a score in [0, 100] and an explanation.
func ExtractScore(completion string) Assessment {
	if strings.HasPrefix(completion, ErrorMarker) {
		return Assessment{Score: 0, Explanation: completion}
	}

	return Assessment{
		Score:       findScore(completion),
		Explanation: findExplanation(completion),
	}
}

func findScore(text string) int {
	for _, pattern := range scorePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		// At most three digits, so Atoi cannot fail or overflow.
		score, err := strconv.Atoi(match[1])
		if err != nil {
			return minScore
		}
		return clamp(score)
	}

	return minScore
}

func findExplanation(text string) string {
	parts := explanationSplit.Split(text, 3)
	if len(parts) < 2 {
		return ExplanationNotFound
	}

	explanation := strings.TrimSpace(parts[1])
	explanation = leadingNumber.ReplaceAllString(explanation, "")
	return strings.TrimSpace(explanation)
}

func clamp(score int) int {
	switch {
	case score < minScore:
		return minScore
	case score > maxScore:
		return maxScore
	default:
		return score
	}
}
