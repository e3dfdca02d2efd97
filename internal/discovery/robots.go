package discovery

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jimsmart/grobotstxt"

	"github.com/Bahjat/structured-web-auditor/internal/fetcher"
)

// RobotsCache stores robots.txt bodies by host.
type RobotsCache interface {
	GetRobotsFile(host string) ([]byte, bool)
	SaveRobotsFile(host string, body []byte)
}

// RobotsFilter drops URLs that robots.txt disallows for the auditor's agent.
// A host whose robots.txt cannot be fetched allows everything.
type RobotsFilter struct {
	fetcher   fetcher.Fetcher
	userAgent string
	cache     RobotsCache
	logger    *slog.Logger
}

// NewRobotsFilter returns a filter for userAgent. cache may be nil.
func NewRobotsFilter(f fetcher.Fetcher, userAgent string, cache RobotsCache, logger *slog.Logger) *RobotsFilter {
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgent
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RobotsFilter{fetcher: f, userAgent: productToken(userAgent), cache: cache, logger: logger}
}

// productToken reduces "Name/1.0 (details)" to "Name", the form robots.txt
// groups are matched against.
func productToken(userAgent string) string {
	if i := strings.IndexAny(userAgent, "/ "); i > 0 {
		return userAgent[:i]
	}
	return userAgent
}

// Filter returns the allowed URLs in their original order.
func (f *RobotsFilter) Filter(ctx context.Context, urls []string) []string {
	files := make(map[string]string)
	allowed := make([]string, 0, len(urls))

	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			// Unparseable URLs are kept so the audit reports them.
			allowed = append(allowed, raw)
			continue
		}

		origin := u.Scheme + "://" + u.Host
		robots, ok := files[origin]
		if !ok {
			robots = f.load(ctx, origin)
			files[origin] = robots
		}

		if grobotstxt.AgentAllowed(robots, f.userAgent, raw) {
			allowed = append(allowed, raw)
		} else {
			f.logger.InfoContext(ctx, "url disallowed by robots.txt", "url", raw)
		}
	}
	return allowed
}

func (f *RobotsFilter) load(ctx context.Context, origin string) string {
	if f.cache != nil {
		if body, ok := f.cache.GetRobotsFile(origin); ok {
			return string(body)
		}
	}

	resp, err := f.fetcher.Fetch(ctx, origin+"/robots.txt")
	if err != nil {
		f.logger.DebugContext(ctx, "robots.txt unavailable", "origin", origin, "error", err)
		return ""
	}
	body := ""
	if resp.StatusCode < http.StatusBadRequest {
		body = resp.Body
	}

	if f.cache != nil {
		f.cache.SaveRobotsFile(origin, []byte(body))
	}
	return body
}
