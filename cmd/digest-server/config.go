package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

type Config struct {
	Addr         string
	SettingsPath string
	OutDir       string

	APIKey         string
	MastodonServer string
	MastodonToken  string

	RequestTimeout time.Duration
	LogLevel       string
	LogJSON        bool
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("missing -addr")
	}
	if c.RequestTimeout < 0 {
		return errors.New("request-timeout must be >= 0")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Addr:           ":5000",
		MastodonServer: "https://mastodon.social",
		RequestTimeout: 10 * time.Minute,
		LogLevel:       "info",
	}
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid -log-level %q", s)
	}
	return lvl, nil
}

func newLogger(level string, asJSON bool) *slog.Logger {
	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
