package discovery

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/Bahjat/structured-web-auditor/internal/jsonld"
	"github.com/Bahjat/structured-web-auditor/internal/platform/errs"
)

const verifyJSONPath = "/verify.json"

var errMalformedMesh = errors.New("mesh: 'distribution' is missing or malformed")

// ParseMesh derives one sitemap URL per distribution entry whose contentUrl
// points at a verify.json document. The result is sorted and unique.
func ParseMesh(data []byte) ([]string, error) {
	v, err := jsonld.Parse(data)
	if err != nil {
		return nil, err
	}
	dist, ok := v.Get("distribution")
	if !ok || !dist.IsArray() {
		return nil, errMalformedMesh
	}

	seen := make(map[string]struct{})
	for _, item := range dist.Array {
		contentURL, ok := item.Get("contentUrl")
		if !ok {
			continue
		}
		s, ok := contentURL.StringValue()
		if !ok {
			continue
		}
		i := strings.LastIndex(s, verifyJSONPath)
		if i < 0 {
			continue
		}
		seen[s[:i]+"/sitemap.xml"] = struct{}{}
	}

	sitemaps := make([]string, 0, len(seen))
	for s := range seen {
		sitemaps = append(sitemaps, s)
	}
	sort.Strings(sitemaps)
	return sitemaps, nil
}

// MeshSitemaps fetches the mesh index and returns the sitemaps it lists.
func (d *Discoverer) MeshSitemaps(ctx context.Context) ([]string, error) {
	resp, err := d.fetcher.Fetch(ctx, d.meshURL)
	if err != nil {
		return nil, errs.Network("The mesh index could not be reached.", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: resp.StatusCode,
			Message:        "The mesh index returned an error status.",
		}
	}

	sitemaps, err := ParseMesh([]byte(resp.Body))
	if err != nil {
		return nil, &errs.AppError{Kind: errs.ParsingFailed, Message: "Failed to parse mesh.json.", Cause: err}
	}
	return sitemaps, nil
}

// MeshURLs collects the pages of every sitemap in the mesh. A sitemap that
// cannot be loaded is logged and skipped.
func (d *Discoverer) MeshURLs(ctx context.Context) ([]string, error) {
	sitemaps, err := d.MeshSitemaps(ctx)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, sm := range sitemaps {
		locs, err := d.Sitemap(ctx, sm)
		if err != nil {
			d.logger.WarnContext(ctx, "skipping mesh sitemap", "sitemap", sm, "error", err)
			continue
		}
		urls = append(urls, locs...)
	}
	d.logger.InfoContext(ctx, "mesh loaded", "sitemaps", len(sitemaps), "urls", len(urls))
	return urls, nil
}
