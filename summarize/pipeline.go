package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Pipeline turns fetched thread content into a chained summary.
type Pipeline struct {
	Chain *Chain
	// Summarizer shrinks an oversized seed. Nil falls back to the chain's summarizer.
	Summarizer *Summarizer
	Logger     *slog.Logger
}

// NewPipeline wires a Pipeline around a single completer.
func NewPipeline(c Completer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	chain := NewChain(c)
	return &Pipeline{Chain: chain, Summarizer: chain.Summarizer, Logger: logger}
}

// Output is everything a caller needs to render or persist a run.
type Output struct {
	Seed       string           `json:"seed"`
	SeedShrunk bool             `json:"seed_summarized"`
	ChunkCount int              `json:"chunk_count"`
	Result     GenerationResult `json:"result"`
}

// Report renders the result in the plain-text report format.
func (o Output) Report() string { return o.Result.Report() }

// Generate chunks the merged thread, optionally pre-compresses the seed, and runs the chain.
func (p *Pipeline) Generate(ctx context.Context, settings Settings, thread ThreadContent, progress ProgressFunc) (Output, error) {
	if p == nil || p.Chain == nil {
		return Output{}, errors.New("Pipeline.Generate: chain is nil")
	}
	if err := settings.Validate(); err != nil {
		return Output{}, fmt.Errorf("Pipeline.Generate: invalid settings: %w", err)
	}
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	start := time.Now()
	merged := thread.Merged()
	chunks := GroupIntoChunks(merged, settings.ChunkTokenLength, settings.ModelType)

	seed := merged
	shrunk := false
	if NeedsSummary(merged, settings) {
		summarizer := p.Summarizer
		if summarizer == nil {
			summarizer = p.Chain.Summarizer
		}
		if summarizer == nil {
			summarizer = NewSummarizer(p.Chain.Completer)
		}
		s, err := summarizer.Summarize(ctx, merged, settings, "")
		if err != nil {
			return Output{}, fmt.Errorf("Pipeline.Generate: summarize seed: %w", err)
		}
		seed, shrunk = s, true
	}

	log.Info("generating summary",
		slog.String("model", settings.Model),
		slog.Int("chunks", len(chunks)),
		slog.Int("max_summaries", settings.MaxNumberOfSummaries),
		slog.Bool("seed_summarized", shrunk))

	wrapped := func(ev ProgressEvent) {
		log.Debug("chunk summarized", slog.Int("index", ev.Index), slog.Int("percent", ev.Percent))
		if progress != nil {
			progress(ev)
		}
	}

	result, err := p.Chain.Run(ctx, settings, chunks, seed, wrapped)
	if err != nil {
		log.Error("summary generation failed", slog.Any("err", err))
		return Output{}, err
	}

	log.Info("summary generated",
		slog.Int("summaries", len(result)),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)))

	return Output{
		Seed:       seed,
		SeedShrunk: shrunk,
		ChunkCount: len(chunks),
		Result:     result,
	}, nil
}
