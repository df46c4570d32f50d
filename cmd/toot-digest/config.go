package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/theimaginaryfoundation/toot-digest/summarize"
)

type Config struct {
	URL          string
	SettingsPath string

	Model         string
	ModelType     string
	ChunkTokens   int
	MaxSummaries  int
	MaxTokens     int
	SummaryTokens int
	QueryFile     string
	SystemRole    string

	OutDir string
	JSON   bool
	Pretty bool

	APIKey         string
	MastodonServer string
	MastodonToken  string

	LogLevel    string
	PrintSchema bool

	// set holds the names of flags given on the command line.
	set map[string]bool
}

func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("missing -url")
	}
	if c.ChunkTokens < 0 || c.MaxSummaries < 0 || c.MaxTokens < 0 || c.SummaryTokens < 0 {
		return errors.New("token and summary limits must be >= 0")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		MastodonServer: "https://mastodon.social",
		LogLevel:       "info",
	}
}

// Settings layers defaults, then the optional YAML file, then any flags given explicitly.
func (c Config) Settings() (summarize.Settings, error) {
	s := summarize.DefaultSettings()
	if c.SettingsPath != "" {
		loaded, err := summarize.LoadSettingsFile(c.SettingsPath, s)
		if err != nil {
			return summarize.Settings{}, err
		}
		s = loaded
	}
	if c.set["model"] {
		s.Model = c.Model
	}
	if c.set["model-type"] {
		s.ModelType = c.ModelType
	}
	if c.set["chunk-tokens"] {
		s.ChunkTokenLength = c.ChunkTokens
	}
	if c.set["max-summaries"] {
		s.MaxNumberOfSummaries = c.MaxSummaries
	}
	if c.set["max-tokens"] {
		s.MaxTokenLength = c.MaxTokens
	}
	if c.set["summary-tokens"] {
		s.SummaryTokenLength = c.SummaryTokens
	}
	if c.set["system-role"] {
		s.SystemRole = c.SystemRole
	}
	if c.QueryFile != "" {
		q, err := loadPromptFromFile(c.QueryFile)
		if err != nil {
			return summarize.Settings{}, err
		}
		s.Query = q
	}
	return s, nil
}

func loadPromptFromFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", fmt.Errorf("prompt file is empty: %s", path)
	}
	return s, nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid -log-level %q", s)
	}
	return lvl, nil
}

func newLogger(level string) *slog.Logger {
	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
