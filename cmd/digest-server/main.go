package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/theimaginaryfoundation/toot-digest/summarize"
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
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	defaults := summarize.DefaultSettings()
	if cfg.SettingsPath != "" {
		defaults, err = summarize.LoadSettingsFile(cfg.SettingsPath, defaults)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
	}
	if err := defaults.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("default settings: %w", err).Error())
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

	logger := newLogger(cfg.LogLevel, cfg.LogJSON)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	srv := &server{
		defaults: defaults,
		fetcher:  toot.NewFetcher(cfg.MastodonServer, cfg.MastodonToken, logger),
		pipeline: summarize.NewPipeline(provider.NewOpenAI(apiKey), logger),
		outDir:   cfg.OutDir,
		timeout:  cfg.RequestTimeout,
		logger:   logger,
		now:      time.Now,
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("digest-server listening", slog.String("addr", cfg.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	fs.StringVar(&cfg.SettingsPath, "settings", "", "Optional YAML file overriding the default generation settings")
	fs.StringVar(&cfg.OutDir, "out", "", "Optional directory to save every generated report into")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.StringVar(&cfg.MastodonServer, "mastodon-server", envOr("MASTODON_SERVER", cfg.MastodonServer), "Instance every lookup goes to; statuses on other servers are resolved through it")
	fs.StringVar(&cfg.MastodonToken, "mastodon-token", os.Getenv("MASTODON_ACCESS_TOKEN"), "Mastodon access token (optional for public statuses)")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "Upper bound for one summary request (0 disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "Emit JSON logs")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
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
