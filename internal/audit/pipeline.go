// Package audit runs the rule set against pages, scores the merged results
// and aggregates them per site.
package audit

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Bahjat/structured-web-auditor/internal/fetcher"
	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/platform/errs"
	"github.com/Bahjat/structured-web-auditor/internal/rules"
)

// Pipeline fetches one page and evaluates every rule against it.
type Pipeline struct {
	fetcher     fetcher.Fetcher
	rules       []rules.Rule
	logger      *slog.Logger
	pageTimeout time.Duration
}

// NewPipeline returns a Pipeline that evaluates rs in the given order. The
// order is also the order in which violations are reported. A zero
// pageTimeout leaves the caller's deadline as the only bound.
func NewPipeline(f fetcher.Fetcher, rs []rules.Rule, logger *slog.Logger, pageTimeout time.Duration) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{fetcher: f, rules: rs, logger: logger, pageTimeout: pageTimeout}
}

// Audit fetches url and evaluates the page. It never returns an error: a
// failed fetch yields a FAIL result with a single violation.
func (p *Pipeline) Audit(ctx context.Context, url string) *model.PageAuditResult {
	if p.pageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.pageTimeout)
		defer cancel()
	}

	resp, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		appErr := errs.Network("Failed to fetch URL", err)
		p.logger.WarnContext(ctx, "page fetch failed", "url", url, "kind", appErr.Kind, "error", err)
		return &model.PageAuditResult{
			URL:        url,
			Status:     model.StatusFail,
			Violations: []string{appErr.Error()},
			FetchError: appErr.Kind.String(),
		}
	}

	finalURL := resp.FinalURL
	if finalURL == "" {
		finalURL = url
	}
	return p.Evaluate(ctx, rules.NewPage(finalURL, resp.Body))
}

// Evaluate runs the rules against already fetched content and merges their
// results.
func (p *Pipeline) Evaluate(ctx context.Context, page *rules.Page) *model.PageAuditResult {
	return merge(page, p.rules, p.run(ctx, page))
}

// run evaluates the rules in dependency waves. Every rule whose
// dependencies have finished runs concurrently with the others of its wave.
func (p *Pipeline) run(ctx context.Context, page *rules.Page) rules.Results {
	done := make(rules.Results, len(p.rules))
	known := make(map[string]bool, len(p.rules))
	for _, r := range p.rules {
		known[r.Name()] = true
	}

	pending := p.rules
	for len(pending) > 0 {
		wave, rest := nextWave(pending, done, known)
		prior := make(rules.Results, len(done))
		for name, res := range done {
			prior[name] = res
		}

		out := make([]rules.Result, len(wave))
		var g errgroup.Group
		for i, r := range wave {
			g.Go(func() error {
				out[i] = evaluate(ctx, r, page, prior)
				return nil
			})
		}
		_ = g.Wait()

		for i, r := range wave {
			done[r.Name()] = out[i]
		}
		pending = rest
	}
	return done
}

// nextWave splits pending into rules that can run now and rules that still
// wait on a dependency. Dependencies outside the rule set are ignored, and a
// cycle is broken by running everything that is left.
func nextWave(pending []rules.Rule, done rules.Results, known map[string]bool) (wave, rest []rules.Rule) {
	for _, r := range pending {
		if ready(r, done, known) {
			wave = append(wave, r)
		} else {
			rest = append(rest, r)
		}
	}
	if len(wave) == 0 {
		return rest, nil
	}
	return wave, rest
}

func ready(r rules.Rule, done rules.Results, known map[string]bool) bool {
	dep, ok := r.(rules.Dependent)
	if !ok {
		return true
	}
	for _, name := range dep.DependsOn() {
		if _, finished := done[name]; known[name] && !finished {
			return false
		}
	}
	return true
}

// evaluate converts a panicking rule into a FAIL result and re-derives the
// status so a rule cannot report PASS with violations.
func evaluate(ctx context.Context, r rules.Rule, page *rules.Page, prior rules.Results) (res rules.Result) {
	defer func() {
		if v := recover(); v != nil {
			res = rules.Failed(r.Name(), "%s rule failed: %v", r.Name(), v)
		}
	}()

	res = r.Evaluate(ctx, page, prior)
	return rules.NewResult(r.Name(), res.Violations, res.Payload)
}

func merge(page *rules.Page, order []rules.Rule, results rules.Results) *model.PageAuditResult {
	out := &model.PageAuditResult{
		URL:        page.URL,
		Status:     model.StatusPass,
		Violations: []string{},
		Details:    &model.PageDetails{},
	}

	for _, r := range order {
		res := results[r.Name()]
		if res.Status == model.StatusFail {
			out.Status = model.StatusFail
		}
		out.Violations = append(out.Violations, res.Violations...)
	}

	if perf := results.Performance(); perf != nil {
		out.LoadTimeMs = perf.LoadTimeMs
	}
	if schema := results.Schema(); schema != nil {
		out.StructuredDataPresent = schema.Present()
		out.Details.JSONLD = schema.JSONLD
		out.Details.Microdata = schema.Microdata
	}
	if bl := results.Backlink(); bl != nil {
		out.BacklinkRequired = bl.Required
		out.BacklinkFound = bl.Found
		out.BacklinkScore = bl.Score
	}
	if zt := results.ZeroTrust(); zt != nil {
		out.Details.ZeroTrustLog = zt.DebugLog
	}
	if al := results.Alignment(); al != nil {
		out.AlignmentPercent = al.Percent
		out.Details.SharedTerms = al.SharedTerms
		out.Details.MissingTerms = al.MissingTerms
		// Missing keywords are reported but do not change the status.
		out.Violations = append(out.Violations, al.MissingViolations()...)
	}

	return out
}
