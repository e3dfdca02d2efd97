package analyzer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/platform/errs"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// mockAuditor implements Auditor for testing.
type mockAuditor struct {
	mu        sync.Mutex
	pageURLs  []string
	siteCalls [][]string
	domains   []string
}

func (m *mockAuditor) AuditPage(_ context.Context, url string) model.PageReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageURLs = append(m.pageURLs, url)
	return model.PageReport{
		Result: &model.PageAuditResult{URL: url, Status: model.StatusPass, Violations: []string{}},
		Score:  100,
	}
}

func (m *mockAuditor) AuditSite(_ context.Context, domain string, urls []string) *model.SiteReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domains = append(m.domains, domain)
	m.siteCalls = append(m.siteCalls, slices.Clone(urls))

	pages := make([]*model.PageAuditResult, len(urls))
	for i, u := range urls {
		pages[i] = &model.PageAuditResult{URL: u, Status: model.StatusPass, Violations: []string{}}
	}
	return &model.SiteReport{
		RunID: "run-" + domain,
		Site: model.SiteAuditResult{
			Domain:      domain,
			TotalPages:  len(urls),
			PagesPassed: len(urls),
			PageScores:  []int{},
		},
		Pages: pages,
	}
}

// mockSource implements URLSource for testing.
type mockSource struct {
	urls []string
	err  error
}

func (m mockSource) SiteURLs(context.Context, string) ([]string, error) {
	return m.urls, m.err
}

// blockPrivate drops every URL containing "/private".
type blockPrivate struct{}

func (blockPrivate) Filter(_ context.Context, urls []string) []string {
	return slices.DeleteFunc(slices.Clone(urls), func(u string) bool {
		return strings.Contains(u, "/private")
	})
}

type mapCache map[string]*model.SiteReport

func (c mapCache) GetSiteReport(domain string) (*model.SiteReport, bool) {
	rep, ok := c[domain]
	return rep, ok
}

func (c mapCache) SaveSiteReport(rep *model.SiteReport) { c[rep.Site.Domain] = rep }

// mockHistory implements History for testing.
type mockHistory struct {
	pages   []string
	sites   []string
	latest  map[string]*model.SiteReport
	saveErr error
	readErr error
}

func (h *mockHistory) SavePage(_ context.Context, r *model.PageAuditResult, _ int) error {
	h.pages = append(h.pages, r.URL)
	return h.saveErr
}

func (h *mockHistory) SaveSite(_ context.Context, rep *model.SiteReport) error {
	h.sites = append(h.sites, rep.RunID)
	return h.saveErr
}

func (h *mockHistory) LatestSite(_ context.Context, domain string) (*model.SiteReport, error) {
	if h.readErr != nil {
		return nil, h.readErr
	}
	if rep, ok := h.latest[domain]; ok {
		return rep, nil
	}
	return nil, &errs.AppError{Kind: errs.NotFound, Message: "none"}
}

var errDatabaseDown = errors.New("database is down")

func newTestMux(svc *Service) *http.ServeMux {
	transport := NewTransport(svc, discardLogger)
	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)
	return mux
}
