package toot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mattn/go-mastodon"
	"github.com/theimaginaryfoundation/toot-digest/summarize"
)

// ErrNoData is returned when the server has no such status (missing, deleted, or unresolvable).
var ErrNoData = errors.New("no status data")

// StatusSource is the subset of the Mastodon API the fetcher needs. *mastodon.Client satisfies it.
type StatusSource interface {
	GetStatus(ctx context.Context, id mastodon.ID) (*mastodon.Status, error)
	GetStatusContext(ctx context.Context, id mastodon.ID) (*mastodon.Context, error)
	Search(ctx context.Context, q string, resolve bool) (*mastodon.Results, error)
}

// FetchError reports that a status or its thread could not be retrieved.
type FetchError struct {
	Ref StatusRef
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Ref, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves a status and its thread and flattens them into summarize.ThreadContent.
// Every request goes to Home. Statuses hosted elsewhere are resolved through Home's search.
type Fetcher struct {
	// Home is the scheme://host of the instance Source talks to.
	Home   string
	Source StatusSource
	Logger *slog.Logger
}

// NewFetcher returns a Fetcher bound to homeServer. accessToken is optional for public statuses.
func NewFetcher(homeServer, accessToken string, logger *slog.Logger) *Fetcher {
	homeServer = strings.TrimSuffix(homeServer, "/")
	return &Fetcher{
		Home:   homeServer,
		Source: mastodon.NewClient(&mastodon.Config{Server: homeServer, AccessToken: accessToken}),
		Logger: logger,
	}
}

// Fetch loads the status referenced by ref plus its ancestors and descendants.
func (f *Fetcher) Fetch(ctx context.Context, ref StatusRef) (summarize.ThreadContent, error) {
	if f == nil || f.Source == nil {
		return summarize.ThreadContent{}, errors.New("Fetcher.Fetch: source is nil")
	}
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}

	status, err := f.lookup(ctx, ref)
	if err != nil {
		log.Error("error getting status", slog.String("ref", ref.String()), slog.Any("err", err))
		return summarize.ThreadContent{}, err
	}

	thread, err := f.Source.GetStatusContext(ctx, status.ID)
	if err != nil {
		log.Error("error getting status context", slog.String("ref", ref.String()), slog.Any("err", err))
		return summarize.ThreadContent{}, &FetchError{Ref: ref, Op: "get status context", Err: noDataIfMissing(err)}
	}

	var comments []string
	if thread != nil {
		for _, a := range thread.Ancestors {
			comments = append(comments, summarize.FlattenComments(toComment(a))...)
		}
		for _, tree := range ReplyTree(status.ID, thread.Descendants) {
			comments = append(comments, summarize.FlattenComments(tree)...)
		}
	}

	log.Debug("fetched thread", slog.String("ref", ref.String()), slog.Int("comments", len(comments)))
	return summarize.ThreadContent{
		Content:  HTMLToText(status.Content),
		Username: status.Account.Username,
		Comments: comments,
	}, nil
}

// lookup reads a home status by ID and resolves any other status by its permalink.
func (f *Fetcher) lookup(ctx context.Context, ref StatusRef) (*mastodon.Status, error) {
	if f.isHome(ref.Server) {
		status, err := f.Source.GetStatus(ctx, mastodon.ID(ref.ID))
		if err != nil {
			return nil, &FetchError{Ref: ref, Op: "get status", Err: noDataIfMissing(err)}
		}
		if status == nil {
			return nil, &FetchError{Ref: ref, Op: "get status", Err: ErrNoData}
		}
		return status, nil
	}

	if ref.URL == "" {
		return nil, &FetchError{Ref: ref, Op: "resolve status", Err: errors.New("permalink is empty")}
	}
	res, err := f.Source.Search(ctx, ref.URL, true)
	if err != nil {
		return nil, &FetchError{Ref: ref, Op: "resolve status", Err: noDataIfMissing(err)}
	}
	if res == nil || len(res.Statuses) == 0 || res.Statuses[0] == nil {
		return nil, &FetchError{Ref: ref, Op: "resolve status", Err: ErrNoData}
	}
	return res.Statuses[0], nil
}

func (f *Fetcher) isHome(server string) bool {
	return f.Home != "" && strings.EqualFold(strings.TrimSuffix(server, "/"), f.Home)
}

// noDataIfMissing tags upstream 404/410 answers with ErrNoData, keeping the API error in the chain.
func noDataIfMissing(err error) error {
	var apiErr *mastodon.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusGone) {
		return fmt.Errorf("%w: %w", ErrNoData, err)
	}
	return err
}

// ReplyTree arranges descendants of root into reply trees, keeping the API order for top-level replies.
// Statuses whose parent is missing from the list are treated as top-level.
func ReplyTree(root mastodon.ID, descendants []*mastodon.Status) []summarize.Comment {
	known := map[mastodon.ID]bool{root: true}
	for _, s := range descendants {
		if s != nil {
			known[s.ID] = true
		}
	}

	children := map[mastodon.ID][]*mastodon.Status{}
	var top []*mastodon.Status
	for _, s := range descendants {
		if s == nil {
			continue
		}
		parent := inReplyTo(s)
		if parent == "" || parent == root || !known[parent] {
			top = append(top, s)
			continue
		}
		children[parent] = append(children[parent], s)
	}

	visited := map[mastodon.ID]bool{}
	var build func(s *mastodon.Status) summarize.Comment
	build = func(s *mastodon.Status) summarize.Comment {
		visited[s.ID] = true
		c := toComment(s)
		for _, child := range children[s.ID] {
			if visited[child.ID] {
				continue
			}
			c.Replies = append(c.Replies, build(child))
		}
		return c
	}

	out := make([]summarize.Comment, 0, len(top))
	for _, s := range top {
		out = append(out, build(s))
	}
	return out
}

func toComment(s *mastodon.Status) summarize.Comment {
	return summarize.Comment{
		Author:    s.Account.Username,
		Content:   strings.ReplaceAll(HTMLToText(s.Content), "\n", " "),
		CreatedAt: s.CreatedAt,
	}
}

func inReplyTo(s *mastodon.Status) mastodon.ID {
	switch v := s.InReplyToID.(type) {
	case nil:
		return ""
	case string:
		return mastodon.ID(v)
	case mastodon.ID:
		return v
	case float64:
		return mastodon.ID(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return mastodon.ID(fmt.Sprint(v))
	}
}
