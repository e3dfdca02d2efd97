package analyzer

import (
	"context"

	"github.com/Bahjat/structured-web-auditor/internal/model"
)

// Auditor defines the contract for the audit engine. *audit.Runner
// implements it.
type Auditor interface {
	AuditPage(ctx context.Context, url string) model.PageReport
	AuditSite(ctx context.Context, domain string, urls []string) *model.SiteReport
}

// URLSource lists the pages of a domain, normally from its sitemap.
type URLSource interface {
	SiteURLs(ctx context.Context, domain string) ([]string, error)
}

// URLFilter drops URLs that must not be audited.
type URLFilter interface {
	Filter(ctx context.Context, urls []string) []string
}

// ReportCache keeps the latest site report per domain.
type ReportCache interface {
	GetSiteReport(domain string) (*model.SiteReport, bool)
	SaveSiteReport(rep *model.SiteReport)
}

// History persists audit runs.
type History interface {
	SavePage(ctx context.Context, r *model.PageAuditResult, score int) error
	SaveSite(ctx context.Context, rep *model.SiteReport) error
	LatestSite(ctx context.Context, domain string) (*model.SiteReport, error)
}
