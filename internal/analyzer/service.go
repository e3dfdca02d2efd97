package analyzer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Bahjat/structured-web-auditor/internal/discovery"
	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/platform/errs"
	"github.com/Bahjat/structured-web-auditor/internal/platform/requestid"
)

var errNoTarget = &errs.AppError{
	Kind:    errs.InvalidInput,
	Message: "Either \"domain\" or \"urls\" is required.",
}

// SiteRequest names the site to audit. When URLs is empty the pages come
// from the domain's sitemap.
type SiteRequest struct {
	Domain string
	URLs   []string
}

// Service orchestrates discovery, auditing, caching and history, and logs
// results.
type Service struct {
	auditor Auditor
	source  URLSource
	filter  URLFilter
	cache   ReportCache
	history History
	logger  *slog.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithFilter applies f to every discovered URL list.
func WithFilter(f URLFilter) ServiceOption {
	return func(s *Service) { s.filter = f }
}

// WithCache serves and refreshes site reports through c.
func WithCache(c ReportCache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithHistory records every run in h.
func WithHistory(h History) ServiceOption {
	return func(s *Service) { s.history = h }
}

// NewService creates a Service backed by the given auditor and URL source.
func NewService(auditor Auditor, source URLSource, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{auditor: auditor, source: source, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuditPage resolves rawURL, audits it and records the outcome. Fetch
// failures are part of the report, not errors.
func (s *Service) AuditPage(ctx context.Context, rawURL string) (*model.PageReport, error) {
	target, err := discovery.ResolveURL(rawURL)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("url", target, "request_id", requestid.FromContext(ctx))

	rep := s.auditor.AuditPage(ctx, target)
	if s.history != nil {
		if err := s.history.SavePage(ctx, rep.Result, rep.Score); err != nil {
			logger.Error("failed to record page audit", "error", err)
		}
	}

	logger.Info("page audit complete",
		"status", rep.Result.Status,
		"score", rep.Score,
		"violations", len(rep.Result.Violations),
		"alignment_percent", rep.Result.AlignmentPercent,
		"fetch_error", rep.Result.FetchError,
	)
	return &rep, nil
}

// AuditSite audits every page of a site and aggregates the results. A
// sitemap that cannot be loaded is logged and yields an empty audit.
func (s *Service) AuditSite(ctx context.Context, req SiteRequest) (*model.SiteReport, error) {
	domain, urls, err := s.targets(ctx, req)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("domain", domain, "request_id", requestid.FromContext(ctx))

	if s.filter != nil {
		before := len(urls)
		urls = s.filter.Filter(ctx, urls)
		if dropped := before - len(urls); dropped > 0 {
			logger.Info("urls disallowed by robots.txt", "dropped", dropped)
		}
	}

	rep := s.auditor.AuditSite(ctx, domain, urls)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Warn("site audit hit its deadline", "pages", rep.Site.TotalPages)
	}

	if s.cache != nil {
		s.cache.SaveSiteReport(rep)
	}
	if s.history != nil {
		if err := s.history.SaveSite(ctx, rep); err != nil {
			logger.Error("failed to record site audit", "error", err)
		}
	}

	logger.Info("site audit complete",
		"run_id", rep.RunID,
		"pages", rep.Site.TotalPages,
		"passed", rep.Site.PagesPassed,
		"average_score", rep.Site.AverageScore,
		"grade", rep.Site.Participation.Grade,
	)
	return rep, nil
}

// LatestSite returns the most recent report of a domain from the cache,
// falling back to history.
func (s *Service) LatestSite(ctx context.Context, rawDomain string) (*model.SiteReport, error) {
	domain, err := discovery.NormalizeDomain(rawDomain)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if rep, ok := s.cache.GetSiteReport(domain); ok {
			return rep, nil
		}
	}
	if s.history != nil {
		rep, err := s.history.LatestSite(ctx, domain)
		if err == nil {
			if s.cache != nil {
				s.cache.SaveSiteReport(rep)
			}
			return rep, nil
		}
		if errs.KindOf(err) != errs.NotFound {
			return nil, err
		}
	}
	return nil, &errs.AppError{Kind: errs.NotFound, Message: "No audit found for " + domain + "."}
}

func (s *Service) targets(ctx context.Context, req SiteRequest) (string, []string, error) {
	if len(req.URLs) > 0 {
		urls := make([]string, 0, len(req.URLs))
		for _, raw := range req.URLs {
			u, err := discovery.ResolveURL(raw)
			if err != nil {
				return "", nil, err
			}
			urls = append(urls, u)
		}
		domainInput := req.Domain
		if domainInput == "" {
			domainInput = urls[0]
		}
		domain, err := discovery.NormalizeDomain(domainInput)
		if err != nil {
			return "", nil, err
		}
		return domain, urls, nil
	}

	if req.Domain == "" {
		return "", nil, errNoTarget
	}
	domain, err := discovery.NormalizeDomain(req.Domain)
	if err != nil {
		return "", nil, err
	}
	urls, err := s.source.SiteURLs(ctx, domain)
	if err != nil {
		s.logger.Error("sitemap discovery failed",
			"domain", domain,
			"error", err,
			"request_id", requestid.FromContext(ctx),
		)
		urls = nil
	}
	return domain, urls, nil
}
