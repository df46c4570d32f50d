package toot

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// StatusRef identifies a status on a specific server.
type StatusRef struct {
	Server string // scheme://host
	ID     string
	URL    string // the permalink as given, trimmed
}

func (r StatusRef) String() string { return r.Server + "/statuses/" + r.ID }

var statusPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^/@[^/@]+(?:@[^/]+)?/(\d+)$`),
	regexp.MustCompile(`^/web/@[^/@]+(?:@[^/]+)?/(\d+)$`),
	regexp.MustCompile(`^/web/statuses/(\d+)$`),
	regexp.MustCompile(`^/users/[^/]+/statuses/(\d+)$`),
}

// ParseStatusURL extracts the server and status ID from a status permalink. A trailing ".json" is ignored.
func ParseStatusURL(raw string) (StatusRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StatusRef{}, errors.New("ParseStatusURL: url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return StatusRef{}, fmt.Errorf("ParseStatusURL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return StatusRef{}, fmt.Errorf("ParseStatusURL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return StatusRef{}, errors.New("ParseStatusURL: missing host")
	}

	path := strings.TrimSuffix(u.Path, "/")
	path = strings.TrimSuffix(path, ".json")
	for _, re := range statusPathPatterns {
		if m := re.FindStringSubmatch(path); m != nil {
			return StatusRef{Server: u.Scheme + "://" + u.Host, ID: m[1], URL: raw}, nil
		}
	}
	return StatusRef{}, fmt.Errorf("ParseStatusURL: not a status url: %s", raw)
}

// IsHTTPS reports whether the status lives on an https server.
func (r StatusRef) IsHTTPS() bool { return strings.HasPrefix(r.Server, "https://") }

// IsValidStatusURL reports whether raw looks like a status permalink.
func IsValidStatusURL(raw string) bool {
	_, err := ParseStatusURL(raw)
	return err == nil
}
