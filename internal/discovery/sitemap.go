package discovery

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Bahjat/structured-web-auditor/internal/fetcher"
	"github.com/Bahjat/structured-web-auditor/internal/platform/errs"
)

// DefaultMeshURL is the public index of participating sites.
const DefaultMeshURL = "https://structuredweb.org/mesh.json"

// Discoverer fetches sitemaps and the mesh index.
type Discoverer struct {
	fetcher fetcher.Fetcher
	meshURL string
	logger  *slog.Logger
}

// New returns a Discoverer. An empty meshURL selects DefaultMeshURL.
func New(f fetcher.Fetcher, meshURL string, logger *slog.Logger) *Discoverer {
	if meshURL == "" {
		meshURL = DefaultMeshURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Discoverer{fetcher: f, meshURL: meshURL, logger: logger}
}

// ParseSitemap returns the text of every <loc> element in document order,
// for both url sets and sitemap indexes.
func ParseSitemap(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var (
		locs  []string
		inLoc bool
		text  strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sitemap: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if strings.EqualFold(t.Name.Local, "loc") {
				inLoc = true
				text.Reset()
			}
		case xml.CharData:
			if inLoc {
				text.Write(t)
			}
		case xml.EndElement:
			if inLoc && strings.EqualFold(t.Name.Local, "loc") {
				inLoc = false
				if loc := strings.TrimSpace(text.String()); loc != "" {
					locs = append(locs, loc)
				}
			}
		}
	}
	return locs, nil
}

// Sitemap fetches and parses the sitemap at sitemapURL.
func (d *Discoverer) Sitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	resp, err := d.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, errs.Network("The sitemap could not be reached.", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: resp.StatusCode,
			Message:        "The sitemap returned an error status.",
		}
	}

	locs, err := ParseSitemap(strings.NewReader(resp.Body))
	if err != nil {
		return nil, &errs.AppError{Kind: errs.ParsingFailed, Message: "Failed to parse the sitemap.", Cause: err}
	}
	d.logger.DebugContext(ctx, "sitemap loaded", "url", sitemapURL, "urls", len(locs))
	return locs, nil
}

// SiteURLs lists the pages of domain from its sitemap.
func (d *Discoverer) SiteURLs(ctx context.Context, domain string) ([]string, error) {
	return d.Sitemap(ctx, SitemapURL(domain))
}
