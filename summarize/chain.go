package summarize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// messageOverheadTokens is reserved for chat message framing on every call.
const messageOverheadTokens = 4

// Pair is one processed chunk: the prompt that was sent and the summary that came back.
type Pair struct {
	Prompt  string `json:"prompt"`
	Summary string `json:"summary"`
}

// GenerationResult holds one Pair per processed chunk, in chunk order.
type GenerationResult []Pair

// Summaries returns just the summary texts, in order.
func (r GenerationResult) Summaries() []string {
	out := make([]string, len(r))
	for i, p := range r {
		out[i] = p.Summary
	}
	return out
}

// ProgressEvent is emitted after each chunk completes.
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Index   int    `json:"index"` // 1-based
	Prompt  string `json:"prompt"`
	Summary string `json:"summary"`
}

// ProgressFunc receives progress synchronously. A panic inside it aborts the run.
type ProgressFunc func(ProgressEvent)

// Chain feeds chunks through a Completer one at a time, carrying each summary forward as context for the next.
type Chain struct {
	Completer  Completer
	Summarizer *Summarizer
}

// NewChain returns a Chain whose context summarization uses the same completer.
func NewChain(c Completer) *Chain {
	return &Chain{Completer: c, Summarizer: NewSummarizer(c)}
}

// BuildPrompt composes the prompt for one chunk.
func BuildPrompt(query, title, chunk string) string {
	var b strings.Builder
	b.WriteString(query)
	b.WriteString("\n\n```Title: ")
	b.WriteString(title)
	b.WriteString("\n\n<Comments>\n")
	b.WriteString(chunk)
	b.WriteString("\n</Comments>\n```")
	return b.String()
}

// TokenAllowance is the completion budget left after the prompt, system role and framing overhead.
// It may be zero or negative; callers pass it through and let the completer decide.
func TokenAllowance(settings Settings, prompt string) int {
	return settings.MaxTokenLength -
		EstimateTokens(prompt, settings.ModelType) -
		EstimateTokens(settings.SystemRole, settings.ModelType) -
		messageOverheadTokens
}

// Run processes at most settings.MaxNumberOfSummaries chunks in order and returns one Pair per chunk.
//
// The first prompt embeds seed as-is. Later prompts embed a re-summarized form of the previous summary,
// while the raw previous summary stays the running context. Any completer error aborts the run and no
// partial result is returned.
func (c *Chain) Run(ctx context.Context, settings Settings, chunks []string, seed string, progress ProgressFunc) (GenerationResult, error) {
	if c == nil || c.Completer == nil {
		return nil, errors.New("Chain.Run: completer is nil")
	}

	n := len(chunks)
	if settings.MaxNumberOfSummaries < n {
		n = max(settings.MaxNumberOfSummaries, 0)
	}
	chunks = chunks[:n]

	summarizer := c.Summarizer
	if summarizer == nil {
		summarizer = NewSummarizer(c.Completer)
	}

	result := make(GenerationResult, 0, n)
	running := seed
	for i, chunk := range chunks {
		embedded := running
		if i > 0 {
			s, err := summarizer.Summarize(ctx, running, settings, "")
			if err != nil {
				return nil, fmt.Errorf("Chain.Run: summarize context for chunk %d: %w", i+1, err)
			}
			embedded = s
		}

		prompt := BuildPrompt(settings.Query, embedded, chunk)
		summary, err := c.Completer.Complete(ctx, prompt, TokenAllowance(settings, prompt), settings)
		if err != nil {
			return nil, fmt.Errorf("Chain.Run: complete chunk %d: %w", i+1, err)
		}

		result = append(result, Pair{Prompt: prompt, Summary: summary})
		running = summary

		if progress != nil {
			progress(ProgressEvent{
				Percent: percentComplete(i+1, n),
				Index:   i + 1,
				Prompt:  prompt,
				Summary: summary,
			})
		}
	}
	return result, nil
}

func percentComplete(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
