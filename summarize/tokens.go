package summarize

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const (
	// CharsPerToken is the heuristic ratio used when no tokenizer is available.
	CharsPerToken = 4
	// CharsPerWord is the average English word length including the trailing space.
	CharsPerWord = 5
)

// Model family tags accepted as ModelType.
const (
	ModelTypeOpenAIChat       = "OpenAI Chat"
	ModelTypeOpenAICompletion = "OpenAI Completion"
)

var familyEncodings = map[string]string{
	"openai chat":       "cl100k_base",
	"openai":            "cl100k_base",
	"openai completion": "p50k_base",
	"openai omni":       "o200k_base",
}

var (
	loaderOnce sync.Once

	encMu    sync.Mutex
	encCache = map[string]*tiktoken.Tiktoken{}
)

// EstimateTokens estimates how many tokens text occupies for the given model type (a family tag or a model name).
// Unknown model types fall back to a characters-per-token heuristic; this never fails.
func EstimateTokens(text, modelType string) int {
	if text == "" {
		return 0
	}
	if enc := encodingFor(modelType); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return heuristicTokens(text)
}

// EstimateWordCount converts a token count into an approximate word count.
func EstimateWordCount(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return tokens * CharsPerToken / CharsPerWord
}

func heuristicTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// encodingFor returns nil when modelType cannot be resolved. Misses are cached too.
func encodingFor(modelType string) *tiktoken.Tiktoken {
	key := strings.ToLower(strings.TrimSpace(modelType))
	if key == "" {
		return nil
	}

	encMu.Lock()
	defer encMu.Unlock()
	if enc, ok := encCache[key]; ok {
		return enc
	}

	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	var enc *tiktoken.Tiktoken
	if name, ok := familyEncodings[key]; ok {
		e, err := tiktoken.GetEncoding(name)
		if err != nil {
			slog.Debug("token estimator: encoding unavailable, using heuristic", slog.String("encoding", name), slog.Any("err", err))
		} else {
			enc = e
		}
	} else if e, err := tiktoken.EncodingForModel(key); err == nil {
		enc = e
	} else {
		slog.Debug("token estimator: unknown model type, using heuristic", slog.String("model_type", modelType))
	}
	encCache[key] = enc
	return enc
}
