package toot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/mattn/go-mastodon"
)

type fakeSource struct {
	status     *mastodon.Status
	statusErr  error
	context    *mastodon.Context
	contextErr error
	results    *mastodon.Results
	searchErr  error

	gotID        mastodon.ID
	gotContextID mastodon.ID
	searches     []string
}

func (f *fakeSource) GetStatus(ctx context.Context, id mastodon.ID) (*mastodon.Status, error) {
	f.gotID = id
	return f.status, f.statusErr
}

func (f *fakeSource) GetStatusContext(ctx context.Context, id mastodon.ID) (*mastodon.Context, error) {
	f.gotContextID = id
	return f.context, f.contextErr
}

func (f *fakeSource) Search(ctx context.Context, q string, resolve bool) (*mastodon.Results, error) {
	if resolve {
		f.searches = append(f.searches, q)
	}
	return f.results, f.searchErr
}

var t0 = time.Date(2023, time.July, 7, 14, 0, 0, 0, time.UTC)

func st(id, parent, user, content string, minutes int) *mastodon.Status {
	s := &mastodon.Status{
		ID:        mastodon.ID(id),
		Content:   content,
		CreatedAt: t0.Add(time.Duration(minutes) * time.Minute),
		Account:   mastodon.Account{Username: user},
	}
	if parent != "" {
		s.InReplyToID = parent
	}
	return s
}

const home = "https://mastodon.social"

func newTestFetcher(src StatusSource) *Fetcher {
	return &Fetcher{
		Home:   home,
		Source: src,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestFetch_FlattensThread(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		status: st("100", "", "op", "<p>Main post</p><p>second para</p>", 0),
		context: &mastodon.Context{
			Ancestors: []*mastodon.Status{st("90", "", "earlier", "<p>before</p>", -10)},
			Descendants: []*mastodon.Status{
				st("101", "100", "alice", "<p>first reply</p>", 1),
				st("102", "100", "bob", "<p>second<br>reply</p>", 2),
				st("103", "101", "carol", "<p>nested</p>", 3),
			},
		},
	}
	f := newTestFetcher(src)

	got, err := f.Fetch(context.Background(), StatusRef{Server: "https://Mastodon.social/", ID: "100"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if src.gotID != "100" || src.gotContextID != "100" || len(src.searches) != 0 {
		t.Fatalf("id=%q context=%q searches=%v", src.gotID, src.gotContextID, src.searches)
	}
	if got.Content != "Main post\n\nsecond para" || got.Username != "op" {
		t.Fatalf("content=%q user=%q", got.Content, got.Username)
	}

	want := []string{
		"2023-Jul-07 13:50 [earlier] before ",
		"2023-Jul-07 14:01 [alice] first reply ",
		"> 2023-Jul-07 14:03 [carol] nested ",
		"2023-Jul-07 14:02 [bob] second reply ",
	}
	if len(got.Comments) != len(want) {
		t.Fatalf("comments=%q", got.Comments)
	}
	for i := range want {
		if got.Comments[i] != want[i] {
			t.Fatalf("comment %d=%q, want %q", i, got.Comments[i], want[i])
		}
	}
}

func TestFetch_NoStatusIsNoData(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(&fakeSource{})
	_, err := f.Fetch(context.Background(), StatusRef{Server: home, ID: "1"})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err=%v, want ErrNoData", err)
	}
	var ferr *FetchError
	if !errors.As(err, &ferr) || ferr.Op != "get status" {
		t.Fatalf("err=%v, want FetchError", err)
	}
}

func TestFetch_PropagatesTransportErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	f := newTestFetcher(&fakeSource{statusErr: boom})
	if _, err := f.Fetch(context.Background(), StatusRef{Server: home, ID: "1"}); !errors.Is(err, boom) || errors.Is(err, ErrNoData) {
		t.Fatalf("err=%v", err)
	}

	f = newTestFetcher(&fakeSource{status: st("1", "", "op", "x", 0), contextErr: boom})
	_, err := f.Fetch(context.Background(), StatusRef{Server: home, ID: "1"})
	var ferr *FetchError
	if !errors.As(err, &ferr) || ferr.Op != "get status context" || !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestFetch_NilContextMeansNoComments(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(&fakeSource{status: st("1", "", "op", "just text", 0)})
	got, err := f.Fetch(context.Background(), StatusRef{Server: home, ID: "1"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Content != "just text" || len(got.Comments) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestReplyTree_OrphansAndCycles(t *testing.T) {
	t.Parallel()

	a := st("2", "1", "a", "a", 1)
	orphan := st("3", "999", "o", "o", 2)
	b := st("4", "5", "b", "b", 3)
	c := st("5", "4", "c", "c", 4)
	numeric := st("6", "", "n", "n", 5)
	numeric.InReplyToID = float64(2)

	trees := ReplyTree("1", []*mastodon.Status{a, orphan, b, c, nil, numeric})
	if len(trees) != 2 {
		t.Fatalf("top-level=%d, want 2: %+v", len(trees), trees)
	}
	if trees[0].Author != "a" || trees[1].Author != "o" {
		t.Fatalf("order=%q,%q", trees[0].Author, trees[1].Author)
	}
	if len(trees[0].Replies) != 1 || trees[0].Replies[0].Author != "n" {
		t.Fatalf("numeric reply id not resolved: %+v", trees[0].Replies)
	}
}

func TestFetch_UpstreamNotFoundIsNoData(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusNotFound, http.StatusGone} {
		f := newTestFetcher(&fakeSource{statusErr: &mastodon.APIError{StatusCode: code}})
		_, err := f.Fetch(context.Background(), StatusRef{Server: home, ID: "1"})
		if !errors.Is(err, ErrNoData) {
			t.Fatalf("code=%d: err=%v, want ErrNoData", code, err)
		}
		var apiErr *mastodon.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != code {
			t.Fatalf("code=%d: upstream error lost: %v", code, err)
		}
	}

	f := newTestFetcher(&fakeSource{statusErr: &mastodon.APIError{StatusCode: http.StatusServiceUnavailable}})
	if _, err := f.Fetch(context.Background(), StatusRef{Server: home, ID: "1"}); errors.Is(err, ErrNoData) {
		t.Fatalf("503 should not be ErrNoData: %v", err)
	}
}

func TestFetch_ForeignStatusIsResolvedThroughHome(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		results: &mastodon.Results{Statuses: []*mastodon.Status{st("555", "", "remote", "<p>federated</p>", 0)}},
		context: &mastodon.Context{},
	}
	f := newTestFetcher(src)

	ref, err := ParseStatusURL("https://10.0.0.5:8443/@remote/42")
	if err != nil {
		t.Fatalf("ParseStatusURL: %v", err)
	}
	got, err := f.Fetch(context.Background(), ref)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if src.gotID != "" {
		t.Fatalf("foreign id looked up directly: %q", src.gotID)
	}
	if len(src.searches) != 1 || src.searches[0] != "https://10.0.0.5:8443/@remote/42" {
		t.Fatalf("searches=%v", src.searches)
	}
	if src.gotContextID != "555" || got.Content != "federated" {
		t.Fatalf("context id=%q content=%q", src.gotContextID, got.Content)
	}
}

func TestFetch_UnresolvableForeignStatusIsNoData(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(&fakeSource{results: &mastodon.Results{}})
	_, err := f.Fetch(context.Background(), StatusRef{Server: "https://elsewhere.example", ID: "1", URL: "https://elsewhere.example/@a/1"})
	var ferr *FetchError
	if !errors.Is(err, ErrNoData) || !errors.As(err, &ferr) || ferr.Op != "resolve status" {
		t.Fatalf("err=%v", err)
	}
}
