package util

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeSeedURL turns user input into an absolute http(s) URL for a crawl
// seed. A missing scheme defaults to https; the host is lowercased.
func NormalizeSeedURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || u.Host == "") && !strings.Contains(raw, "://") {
		if u2, e2 := url.Parse("https://" + raw); e2 == nil {
			u = u2
		}
	}
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q", raw)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported URL %q: only http and https seeds can be crawled", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}
