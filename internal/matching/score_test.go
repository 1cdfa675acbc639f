package matching

import (
	"math/rand"
	"strings"
	"testing"
)

func TestExtractScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		completion      string
		wantScore       int
		wantExplanation string
	}{
		{
			name:            "requested format",
			completion:      "Score: 87\nGreat fit for the role.",
			wantScore:       87,
			wantExplanation: "Great fit for the role.",
		},
		{
			name:            "bracketed number",
			completion:      "Score: [64]\nDecent overlap, little cloud experience.",
			wantScore:       64,
			wantExplanation: "Decent overlap, little cloud experience.",
		},
		{
			name:            "lowercase label",
			completion:      "score: 42 - missing most keywords",
			wantScore:       42,
			wantExplanation: "- missing most keywords",
		},
		{
			name:            "dash variant",
			completion:      "Overall Score - 73. Strong Go background.",
			wantScore:       73,
			wantExplanation: ExplanationNotFound,
		},
		{
			name:            "out of hundred",
			completion:      "I would rate this candidate 58/100 because of limited experience.",
			wantScore:       58,
			wantExplanation: ExplanationNotFound,
		},
		{
			name:            "rating clamped",
			completion:      "Rating: 150",
			wantScore:       100,
			wantExplanation: "",
		},
		{
			name:            "rating with explanation",
			completion:      "Rating: 35\nJunior profile.",
			wantScore:       35,
			wantExplanation: "Junior profile.",
		},
		{
			name:            "no pattern",
			completion:      "The candidate looks promising but I cannot decide.",
			wantScore:       0,
			wantExplanation: ExplanationNotFound,
		},
		{
			name:            "empty",
			completion:      "",
			wantScore:       0,
			wantExplanation: ExplanationNotFound,
		},
		{
			name:            "first pattern wins over later ones",
			completion:      "Rating: 10\nScore: 90\nGood. Previously 20/100.",
			wantScore:       90,
			wantExplanation: "",
		},
		{
			name:            "only first explanation segment",
			completion:      "Score: 80\nStrong match.\nRating: 4/5",
			wantScore:       80,
			wantExplanation: "Strong match.",
		},
		{
			name:            "error marker",
			completion:      "Error: API request failed.",
			wantScore:       0,
			wantExplanation: "Error: API request failed.",
		},
		{
			name:            "error marker wins over score",
			completion:      "Error: Score: 99",
			wantScore:       0,
			wantExplanation: "Error: Score: 99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractScore(tt.completion)
			if got.Score != tt.wantScore {
				t.Fatalf("expected score %d, got %d", tt.wantScore, got.Score)
			}
			if got.Explanation != tt.wantExplanation {
				t.Fatalf("expected explanation %q, got %q", tt.wantExplanation, got.Explanation)
			}
		})
	}
}

func TestExtractScoreIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Score: 87\nGreat fit for the role.",
		"Rating: 150",
		"nothing here",
		"Score: [12] meh 99/100 Rating: 3",
	}

	for _, input := range inputs {
		first := ExtractScore(input)
		second := ExtractScore(input)
		if first != second {
			t.Fatalf("expected identical results for %q, got %+v and %+v", input, first, second)
		}
	}
}

func TestExtractScoreBoundsOnRandomInput(t *testing.T) {
	t.Parallel()

	fragments := []string{
		"Score:", "score -", "Rating:", "/100", "[", "]", "999", "0", "42", "-7",
		" ", "\n", "abc", "Score", ":", "100", "1000", "Error:", "é", "\x00",
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		var b strings.Builder
		for n := rng.Intn(12); n >= 0; n-- {
			b.WriteString(fragments[rng.Intn(len(fragments))])
		}
		input := b.String()

		got := ExtractScore(input)
		if got.Score < 0 || got.Score > 100 {
			t.Fatalf("score %d out of range for %q", got.Score, input)
		}
		if got.Explanation == "" && !strings.Contains(strings.ToLower(input), "score:") && !strings.Contains(strings.ToLower(input), "rating:") {
			t.Fatalf("expected sentinel explanation for %q", input)
		}
	}
}

func FuzzExtractScore(f *testing.F) {
	f.Add("Score: 87\nGreat fit for the role.")
	f.Add("Rating: 150")
	f.Add("58/100")
	f.Add("")

	f.Fuzz(func(t *testing.T, completion string) {
		got := ExtractScore(completion)
		if got.Score < 0 || got.Score > 100 {
			t.Fatalf("score %d out of range for %q", got.Score, completion)
		}
		if again := ExtractScore(completion); again != got {
			t.Fatalf("non-deterministic result for %q", completion)
		}
	})
}
