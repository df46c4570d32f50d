package summarize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEstimateTokens_Empty(t *testing.T) {
	t.Parallel()

	for _, mt := range []string{"", ModelTypeOpenAIChat, "no-such-model"} {
		if got := EstimateTokens("", mt); got != 0 {
			t.Fatalf("EstimateTokens(\"\", %q)=%d, want 0", mt, got)
		}
	}
}

func TestEstimateTokens_HeuristicFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want int
	}{
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
		{"héllo", 2}, // runes, not bytes
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text, ""); got != tt.want {
			t.Fatalf("EstimateTokens(%q)=%d, want %d", tt.text, got, tt.want)
		}
		if got := EstimateTokens(tt.text, "definitely-not-a-model"); got != tt.want {
			t.Fatalf("unknown model type: EstimateTokens(%q)=%d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestEstimateTokens_TokenizerIsDeterministic(t *testing.T) {
	t.Parallel()

	text := "Federated timelines are a mixed blessing, said the post."
	a := EstimateTokens(text, ModelTypeOpenAIChat)
	b := EstimateTokens(text, ModelTypeOpenAIChat)
	if a != b {
		t.Fatalf("non-deterministic: %d vs %d", a, b)
	}
	if a <= 0 || a > utf8.RuneCountInString(text) {
		t.Fatalf("implausible count %d for %d runes", a, utf8.RuneCountInString(text))
	}
	if m := EstimateTokens(text, "gpt-4"); m <= 0 {
		t.Fatalf("model name lookup: got %d", m)
	}
}

func TestEstimateWordCount(t *testing.T) {
	t.Parallel()

	tests := []struct{ tokens, want int }{
		{-5, 0},
		{0, 0},
		{5, 4},
		{100, 80},
		{1000, 800},
	}
	for _, tt := range tests {
		if got := EstimateWordCount(tt.tokens); got != tt.want {
			t.Fatalf("EstimateWordCount(%d)=%d, want %d", tt.tokens, got, tt.want)
		}
	}
}
