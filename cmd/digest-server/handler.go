package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/theimaginaryfoundation/toot-digest/summarize"
	"github.com/theimaginaryfoundation/toot-digest/summarize/fileutils"
	"github.com/theimaginaryfoundation/toot-digest/summarize/provider"
	"github.com/theimaginaryfoundation/toot-digest/toot"
)

type threadFetcher interface {
	Fetch(ctx context.Context, ref toot.StatusRef) (summarize.ThreadContent, error)
}

type summaryRequest struct {
	MastodonURL string          `json:"mastodon_url"`
	Settings    json.RawMessage `json:"settings,omitempty"`
}

type summaryResponse struct {
	RunID     string   `json:"run_id"`
	Summary   string   `json:"summary"`
	Summaries []string `json:"summaries"`
	SavedPath string   `json:"saved_path,omitempty"`
}

type server struct {
	defaults summarize.Settings
	fetcher  threadFetcher
	pipeline *summarize.Pipeline
	outDir   string
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestTimeout(s.timeout))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/settings/schema", func(c *gin.Context) {
		c.JSON(http.StatusOK, provider.GenerateSchema[summarize.Settings]())
	})
	r.POST("/mastodon/summary", s.handleSummary)
	return r
}

func (s *server) handleSummary(c *gin.Context) {
	runID := uuid.NewString()
	log := s.logger.With(slog.String("run_id", runID))

	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be JSON"})
		return
	}

	ref, err := toot.ParseStatusURL(req.MastodonURL)
	if err != nil || !ref.IsHTTPS() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid Mastodon URL"})
		return
	}

	// Request settings are decoded over the defaults, so omitted keys keep their default values.
	settings := s.defaults
	if settings.Temperature != nil {
		t := *settings.Temperature
		settings.Temperature = &t
	}
	if len(req.Settings) > 0 && string(req.Settings) != "null" {
		if err := json.Unmarshal(req.Settings, &settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings: " + err.Error()})
			return
		}
	}
	if err := settings.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	thread, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		log.Error("fetch failed", slog.String("ref", ref.String()), slog.Any("err", err))
		if errors.Is(err, toot.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No Mastodon data available", "run_id": runID})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not fetch the Mastodon status", "run_id": runID})
		return
	}

	out, err := s.pipeline.Generate(ctx, settings, thread, nil)
	if err != nil {
		log.Error("generate failed", slog.Any("err", err))
		var cerr *summarize.CompletionError
		if errors.As(err, &cerr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "The completion service rejected the request", "kind": string(cerr.Kind), "run_id": runID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while generating the summary", "run_id": runID})
		return
	}

	resp := summaryResponse{
		RunID:     runID,
		Summary:   out.Report(),
		Summaries: out.Result.Summaries(),
	}
	if s.outDir != "" {
		path, err := fileutils.SaveOutput(s.outDir, thread.Content, resp.Summary, s.now())
		if err != nil {
			log.Warn("save output failed", slog.Any("err", err))
		} else {
			resp.SavedPath = path
		}
	}

	log.Info("summary served",
		slog.String("ref", ref.String()),
		slog.Int("summaries", len(resp.Summaries)),
		slog.String("preview", fileutils.Truncate(lastOrEmpty(resp.Summaries), 80)))
	c.JSON(http.StatusOK, resp)
}

// requestTimeout bounds the request context; the completer sees the deadline and fails the run.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func lastOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}
