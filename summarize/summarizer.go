package summarize

import (
	"context"
	"errors"
	"fmt"
)

// Summarizer collapses text that is too long to be used directly as prompt context.
type Summarizer struct {
	Completer Completer
}

// NewSummarizer returns a Summarizer backed by c.
func NewSummarizer(c Completer) *Summarizer {
	return &Summarizer{Completer: c}
}

func summaryInstruction(text string, budget int) string {
	return fmt.Sprintf("shorten this text to ~%d GPT tokens through summarization: %s", budget, text)
}

// Summarize asks the completer to shorten text to settings.SummaryBudget() tokens.
// When title is non-empty it is prefixed to the result on its own line.
// Completer errors are returned unchanged.
func (s *Summarizer) Summarize(ctx context.Context, text string, settings Settings, title string) (string, error) {
	if s == nil || s.Completer == nil {
		return "", errors.New("Summarize: completer is nil")
	}

	budget := settings.SummaryBudget()
	out, err := s.Completer.Complete(ctx, summaryInstruction(text, budget), budget, settings)
	if err != nil {
		return "", err
	}
	if title == "" {
		return out, nil
	}
	return title + "\n" + out, nil
}

// NeedsSummary reports whether text is too long to serve directly as seed context.
func NeedsSummary(text string, settings Settings) bool {
	return EstimateTokens(text, settings.ModelType) > EstimateWordCount(settings.MaxTokenLength)
}
