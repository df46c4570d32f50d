package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/theimaginaryfoundation/toot-digest/summarize"
	"github.com/theimaginaryfoundation/toot-digest/summarize/fileutils"
	"github.com/theimaginaryfoundation/toot-digest/summarize/provider"
	"github.com/theimaginaryfoundation/toot-digest/toot"
)

func main() {
	_ = godotenv.Load()

	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if cfg.PrintSchema {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(provider.GenerateSchema[summarize.Settings]())
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	settings, err := cfg.Settings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := toot.NewFetcher(cfg.MastodonServer, cfg.MastodonToken, logger)
	pipeline := summarize.NewPipeline(provider.NewOpenAI(apiKey), logger)

	if err := run(ctx, cfg, settings, fetcher, pipeline, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type threadFetcher interface {
	Fetch(ctx context.Context, ref toot.StatusRef) (summarize.ThreadContent, error)
}

func run(ctx context.Context, cfg Config, settings summarize.Settings, fetcher threadFetcher, pipeline *summarize.Pipeline, stdout, stderr io.Writer) error {
	ref, err := toot.ParseStatusURL(cfg.URL)
	if err != nil {
		return err
	}

	thread, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := pipeline.Generate(ctx, settings, thread, func(ev summarize.ProgressEvent) {
		fmt.Fprintf(stderr, "progress toot-digest: %d%% (chunk=%d elapsed=%s)\n",
			ev.Percent, ev.Index, time.Since(start).Round(time.Second))
	})
	if err != nil {
		return fmt.Errorf("generate summary: %w", err)
	}

	if cfg.JSON {
		enc := json.NewEncoder(stdout)
		if cfg.Pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
	} else {
		fmt.Fprintln(stdout, "Original Content:")
		fmt.Fprintln(stdout, thread.Content)
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, out.Report())
	}

	if cfg.OutDir != "" {
		path, err := fileutils.SaveOutput(cfg.OutDir, thread.Content, out.Report(), time.Now())
		if err != nil {
			return err
		}
		if cfg.JSON {
			jsonPath := path[:len(path)-len(filepath.Ext(path))] + ".json"
			if err := fileutils.WriteJSONFileAtomic(jsonPath, out, cfg.Pretty); err != nil {
				return fmt.Errorf("save json output: %w", err)
			}
		}
		fmt.Fprintf(stderr, "saved output to %s\n", path)
	}
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.URL, "url", cfg.URL, "Mastodon status URL (e.g. https://mastodon.social/@user/1234567890)")
	fs.StringVar(&cfg.SettingsPath, "settings", "", "Optional YAML settings file (keys: system_role, query, selected_model, ...)")
	fs.StringVar(&cfg.Model, "model", "", "Model identifier override (e.g. gpt-4o-mini)")
	fs.StringVar(&cfg.ModelType, "model-type", "", "Model family tag for token estimation (e.g. \"OpenAI Chat\")")
	fs.IntVar(&cfg.ChunkTokens, "chunk-tokens", 0, "Target estimated tokens per chunk")
	fs.IntVar(&cfg.MaxSummaries, "max-summaries", 0, "Max number of chunks to summarize")
	fs.IntVar(&cfg.MaxTokens, "max-tokens", 0, "Hard token cap per completion call")
	fs.IntVar(&cfg.SummaryTokens, "summary-tokens", 0, "Output budget for recursive context summarization (0 = max-tokens/2)")
	fs.StringVar(&cfg.QueryFile, "query-file", "", "Optional file containing the instruction placed at the top of every prompt")
	fs.StringVar(&cfg.SystemRole, "system-role", "", "System role text override")
	fs.StringVar(&cfg.OutDir, "out", "", "Optional directory to save the report into")
	fs.BoolVar(&cfg.JSON, "json", false, "Print the run as JSON instead of the text report")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Indent JSON output")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.StringVar(&cfg.MastodonServer, "mastodon-server", envOr("MASTODON_SERVER", cfg.MastodonServer), "Instance every lookup goes to; statuses on other servers are resolved through it")
	fs.StringVar(&cfg.MastodonToken, "mastodon-token", os.Getenv("MASTODON_ACCESS_TOKEN"), "Mastodon access token (optional for public statuses)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.PrintSchema, "print-settings-schema", false, "Print the JSON schema for settings files and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/toot-digest -url https://mastodon.social/@user/1234567890 -max-summaries 3")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })
	if cfg.SettingsPath != "" {
		cfg.SettingsPath = filepath.Clean(cfg.SettingsPath)
	}
	if cfg.OutDir != "" {
		cfg.OutDir = filepath.Clean(cfg.OutDir)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
