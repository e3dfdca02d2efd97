package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bahjat/structured-web-auditor/internal/model"
)

// pageAuditor audits one URL. *Pipeline implements it.
type pageAuditor interface {
	Audit(ctx context.Context, url string) *model.PageAuditResult
}

// Recorder observes every audited page together with its score.
type Recorder interface {
	RecordPage(ctx context.Context, page *model.PageAuditResult, score int)
}

// Runner audits URL lists with a bounded pool of workers.
type Runner struct {
	auditor     pageAuditor
	scorer      Scorer
	concurrency int
	recorder    Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithRecorder reports every scored page to rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner returns a Runner that audits at most concurrency pages at a time.
func NewRunner(a pageAuditor, scorer Scorer, concurrency int, opts ...Option) *Runner {
	r := &Runner{
		auditor:     a,
		scorer:      scorer,
		concurrency: max(concurrency, 1),
		logger:      slog.New(slog.DiscardHandler),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AuditPage audits and scores a single URL.
func (r *Runner) AuditPage(ctx context.Context, url string) model.PageReport {
	page := r.auditor.Audit(ctx, url)
	score := r.scorer.Score(page)
	r.record(ctx, page, score)
	return model.PageReport{Result: page, Score: score}
}

// AuditPages audits urls concurrently and returns the results in input order.
func (r *Runner) AuditPages(ctx context.Context, urls []string) []*model.PageAuditResult {
	results := make([]*model.PageAuditResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	type job struct {
		index int
		url   string
	}
	jobs := make(chan job, len(urls))

	var wg sync.WaitGroup
	for range min(len(urls), r.concurrency) {
		wg.Go(func() {
			for j := range jobs {
				report := r.AuditPage(ctx, j.url)
				results[j.index] = report.Result
				r.logger.InfoContext(ctx, "page audited",
					"url", j.url,
					"status", report.Result.Status,
					"score", report.Score,
					"violations", len(report.Result.Violations),
				)
			}
		})
	}

	for i, u := range urls {
		jobs <- job{index: i, url: u}
	}
	close(jobs)
	wg.Wait()

	return results
}

// AuditSite audits every URL of a domain, then aggregates the buffered
// results once all pages are done.
func (r *Runner) AuditSite(ctx context.Context, domain string, urls []string) *model.SiteReport {
	pages := r.AuditPages(ctx, urls)
	site := Aggregate(domain, pages, r.scorer)

	r.logger.InfoContext(ctx, "site audited",
		"domain", domain,
		"pages", site.TotalPages,
		"passed", site.PagesPassed,
		"average_score", site.AverageScore,
		"grade", site.Participation.Grade,
	)

	return &model.SiteReport{
		RunID:       uuid.NewString(),
		GeneratedAt: r.now().UTC(),
		Site:        site,
		Pages:       pages,
	}
}

func (r *Runner) record(ctx context.Context, page *model.PageAuditResult, score int) {
	if r.recorder != nil {
		r.recorder.RecordPage(ctx, page, score)
	}
}
