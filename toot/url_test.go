package toot

import "testing"

func TestParseStatusURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want StatusRef
	}{
		{"https://mastodon.social/@alice/109876543210", StatusRef{Server: "https://mastodon.social", ID: "109876543210"}},
		{"https://mastodon.social/@alice@hachyderm.io/42/", StatusRef{Server: "https://mastodon.social", ID: "42"}},
		{"https://fosstodon.org/web/@bob/7", StatusRef{Server: "https://fosstodon.org", ID: "7"}},
		{"https://fosstodon.org/web/statuses/8", StatusRef{Server: "https://fosstodon.org", ID: "8"}},
		{"https://example.com/users/carol/statuses/9.json", StatusRef{Server: "https://example.com", ID: "9"}},
		{"  http://localhost:3000/@dev/10  ", StatusRef{Server: "http://localhost:3000", ID: "10"}},
	}
	for _, tt := range tests {
		got, err := ParseStatusURL(tt.raw)
		if err != nil {
			t.Fatalf("ParseStatusURL(%q): %v", tt.raw, err)
		}
		if got.Server != tt.want.Server || got.ID != tt.want.ID {
			t.Fatalf("ParseStatusURL(%q)=%+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestParseStatusURL_Invalid(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"not a url",
		"ftp://mastodon.social/@alice/1",
		"https:///@alice/1",
		"https://mastodon.social/@alice",
		"https://mastodon.social/@alice/abc",
		"https://mastodon.social/about",
	} {
		if IsValidStatusURL(raw) {
			t.Fatalf("IsValidStatusURL(%q)=true", raw)
		}
	}
}

func TestStatusRefString(t *testing.T) {
	t.Parallel()

	ref := StatusRef{Server: "https://mastodon.social", ID: "1"}
	if got := ref.String(); got != "https://mastodon.social/statuses/1" {
		t.Fatalf("got %q", got)
	}
}

func TestParseStatusURL_KeepsPermalinkAndScheme(t *testing.T) {
	t.Parallel()

	ref, err := ParseStatusURL("  https://hachyderm.io/@bob/77  ")
	if err != nil {
		t.Fatalf("ParseStatusURL: %v", err)
	}
	if ref.URL != "https://hachyderm.io/@bob/77" || !ref.IsHTTPS() {
		t.Fatalf("ref=%+v", ref)
	}

	ref, err = ParseStatusURL("http://10.0.0.5:8080/@bob/77")
	if err != nil {
		t.Fatalf("ParseStatusURL: %v", err)
	}
	if ref.IsHTTPS() {
		t.Fatalf("http ref reported as https: %+v", ref)
	}
}
