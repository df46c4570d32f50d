package summarize

import (
	"context"
	"fmt"
)

// Completer turns a prompt into completion text. Implementations own retry policy, if any.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, settings Settings) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, maxTokens int, settings Settings) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string, maxTokens int, settings Settings) (string, error) {
	return f(ctx, prompt, maxTokens, settings)
}

// CompletionErrorKind classifies why a completion call failed.
type CompletionErrorKind string

const (
	CompletionInvalidBudget CompletionErrorKind = "invalid_budget"
	CompletionRateLimited   CompletionErrorKind = "rate_limited"
	CompletionServer        CompletionErrorKind = "server"
	CompletionRejected      CompletionErrorKind = "rejected"
	CompletionEmptyOutput   CompletionErrorKind = "empty_output"
)

// CompletionError is returned by Completer implementations when the upstream service rejects or fails a call.
type CompletionError struct {
	Kind      CompletionErrorKind
	MaxTokens int
	Err       error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("completion failed (%s, max_tokens=%d)", e.Kind, e.MaxTokens)
	}
	return fmt.Sprintf("completion failed (%s, max_tokens=%d): %v", e.Kind, e.MaxTokens, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }
