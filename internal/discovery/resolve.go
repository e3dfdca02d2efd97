// Package discovery turns user input, sitemaps and the mesh index into the
// URL lists that get audited.
package discovery

import (
	"net/url"
	"strings"

	"github.com/Bahjat/structured-web-auditor/internal/platform/errs"
)

const invalidURLMessage = "Invalid URL: missing domain. Enter a URL such as example.com or https://example.com/about."

// ResolveURL completes a partial URL: https is assumed when no scheme is
// given, and a bare host gets the root path.
func ResolveURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &errs.AppError{Kind: errs.InvalidInput, Message: invalidURLMessage, Cause: err}
	}
	if u.Hostname() == "" {
		return "", &errs.AppError{Kind: errs.InvalidInput, Message: invalidURLMessage}
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// NormalizeDomain accepts a domain or URL and returns the lowercased host.
func NormalizeDomain(raw string) (string, error) {
	resolved, err := ResolveURL(raw)
	if err != nil {
		return "", err
	}
	u, _ := url.Parse(resolved)
	return strings.ToLower(u.Hostname()), nil
}

// SitemapURL returns the conventional sitemap location of domain.
func SitemapURL(domain string) string {
	return "https://" + domain + "/sitemap.xml"
}
