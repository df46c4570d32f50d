package summarize

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the configuration for one generation run. It is passed by value and never mutated by the pipeline.
type Settings struct {
	// SystemRole is the system/instructions text sent with every completion call.
	SystemRole string `json:"system_role" yaml:"system_role"`

	// Query is the instruction placed at the top of every chunk prompt.
	Query string `json:"query" yaml:"query"`

	// Model is the model identifier passed to the completion provider (e.g. gpt-4o-mini).
	Model string `json:"selected_model" yaml:"selected_model"`

	// ModelType is the model family tag used to pick a tokenizer (e.g. "OpenAI Chat").
	ModelType string `json:"selected_model_type" yaml:"selected_model_type"`

	// ChunkTokenLength is the target upper bound, in estimated tokens, for each chunk.
	ChunkTokenLength int `json:"chunk_token_length" yaml:"chunk_token_length"`

	// MaxNumberOfSummaries caps how many chunks are processed. Extra chunks are discarded.
	MaxNumberOfSummaries int `json:"max_number_of_summaries" yaml:"max_number_of_summaries"`

	// MaxTokenLength is the hard cap for a single completion call (prompt + system role + output).
	MaxTokenLength int `json:"max_token_length" yaml:"max_token_length"`

	// SummaryTokenLength is the output budget for recursive summarization.
	// 0 derives it from MaxTokenLength.
	SummaryTokenLength int `json:"summary_token_length,omitempty" yaml:"summary_token_length,omitempty"`

	// Temperature is optional; nil uses the provider default.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

const (
	defaultSystemRole = "You are a helpful assistant."
	defaultQuery      = "Revise and improve the article by incorporating relevant information from the comments. " +
		"Ensure the content is clear, engaging, and easy to understand for a general audience. " +
		"Avoid technical language, present facts objectively, and summarize key comments from the thread. " +
		"Ensure that the overall sentiment expressed in the comments is accurately reflected. " +
		"Don't be trolled by joke comments. Format the document using markdown."
)

// DefaultSettings returns the settings used when a caller supplies none.
func DefaultSettings() Settings {
	return Settings{
		SystemRole:           defaultSystemRole,
		Query:                defaultQuery,
		Model:                "gpt-4o-mini",
		ModelType:            ModelTypeOpenAIChat,
		ChunkTokenLength:     100,
		MaxNumberOfSummaries: 3,
		MaxTokenLength:       1000,
	}
}

// Validate checks the limits the pipeline relies on.
func (s Settings) Validate() error {
	if s.ChunkTokenLength <= 0 {
		return errors.New("chunk_token_length must be > 0")
	}
	if s.MaxTokenLength <= 0 {
		return errors.New("max_token_length must be > 0")
	}
	if s.MaxNumberOfSummaries < 0 {
		return errors.New("max_number_of_summaries must be >= 0")
	}
	if s.SummaryTokenLength < 0 {
		return errors.New("summary_token_length must be >= 0")
	}
	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		return errors.New("temperature must be within [0, 2]")
	}
	return nil
}

// SummaryBudget is the output budget handed to the recursive summarizer.
func (s Settings) SummaryBudget() int {
	if s.SummaryTokenLength > 0 {
		return s.SummaryTokenLength
	}
	if b := s.MaxTokenLength / 2; b > 0 {
		return b
	}
	return 1
}

// LoadSettingsFile overlays a YAML settings file on top of base. Keys missing from the file keep base's values.
func LoadSettingsFile(path string, base Settings) (Settings, error) {
	if path == "" {
		return Settings{}, errors.New("LoadSettingsFile: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("LoadSettingsFile: read file: %w", err)
	}
	out := base
	if err := yaml.Unmarshal(b, &out); err != nil {
		return Settings{}, fmt.Errorf("LoadSettingsFile: unmarshal: %w", err)
	}
	return out, nil
}
