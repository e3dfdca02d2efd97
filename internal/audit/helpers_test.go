package audit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Bahjat/structured-web-auditor/internal/fetcher"
	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/rules"
)

var errNoSuchHost = errors.New("dial tcp: lookup nowhere.invalid: no such host")

// fakePage is one canned response of fakeSite.
type fakePage struct {
	body     string
	finalURL string
	elapsed  time.Duration
	cookies  []*http.Cookie
	err      error
}

// fakeSite implements fetcher.Fetcher over an in-memory set of pages. It
// serves both the audit fetch and the rules' probe requests.
type fakeSite struct {
	mu    sync.Mutex
	pages map[string]fakePage
	calls map[string]int
}

func newFakeSite(pages map[string]fakePage) *fakeSite {
	return &fakeSite{pages: pages, calls: make(map[string]int)}
}

func (f *fakeSite) Fetch(ctx context.Context, url string) (*fetcher.Response, error) {
	f.mu.Lock()
	f.calls[url]++
	page, ok := f.pages[url]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoSuchHost
	}
	if page.err != nil {
		return nil, page.err
	}
	final := page.finalURL
	if final == "" {
		final = url
	}
	return &fetcher.Response{
		Body:       page.body,
		FinalURL:   final,
		StatusCode: http.StatusOK,
		Cookies:    page.cookies,
		Elapsed:    page.elapsed,
	}, nil
}

func (f *fakeSite) callsTo(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func newTestPipeline(site *fakeSite) *Pipeline {
	return NewPipeline(site, rules.DefaultSet(site, rules.DefaultSettings(), nil), nil, time.Minute)
}

func intPtr(v int) *int { return &v }

// result builds a page result for scorer and aggregator tests.
func result(url string, status model.Status, mutate func(*model.PageAuditResult)) *model.PageAuditResult {
	r := &model.PageAuditResult{
		URL:                   url,
		Status:                status,
		Violations:            []string{},
		AlignmentPercent:      100,
		StructuredDataPresent: true,
	}
	if mutate != nil {
		mutate(r)
	}
	return r
}
