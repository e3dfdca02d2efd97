package rules

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Bahjat/structured-web-auditor/internal/fetcher"
)

// PerformancePayload reports the timing probe and the autoloaded resources.
type PerformancePayload struct {
	LoadTimeMs   *int
	AutoloadedJS []string
	CookiesSet   []string
}

func (*PerformancePayload) payload() {}

// Performance times a fresh request to the page and looks for scripts and
// cookies that load without user interaction. The root page is held to the
// load-time budget but may autoload scripts and cookies.
type Performance struct {
	prober  fetcher.Fetcher
	allow   []string
	budget  time.Duration
	timeout time.Duration
}

// NewPerformance returns the rule backed by the given prober. The same probe
// response supplies both the load time and the cookie list.
func NewPerformance(prober fetcher.Fetcher, s Settings) *Performance {
	return &Performance{
		prober:  prober,
		allow:   slices.Clone(s.ScriptAllowList),
		budget:  s.LoadTimeBudget,
		timeout: s.probeTimeout(),
	}
}

func (*Performance) Name() string { return NamePerformance }

func (r *Performance) Evaluate(ctx context.Context, page *Page, _ Results) Result {
	out := &PerformancePayload{}

	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.prober.Fetch(probeCtx, page.URL)
	if err != nil {
		return NewResult(NamePerformance, []string{fmt.Sprintf("Page load error: %v", err)}, out)
	}

	var violations []string
	ms := int(resp.Elapsed.Milliseconds())
	out.LoadTimeMs = &ms

	root := page.IsRoot()
	if root && int64(ms) > r.budget.Milliseconds() {
		violations = append(violations,
			fmt.Sprintf("Homepage load time exceeds %dms: %dms", r.budget.Milliseconds(), ms))
	}

	doc, err := page.Document()
	if err != nil {
		violations = append(violations, fmt.Sprintf("Markup parse error: %v", err))
		return NewResult(NamePerformance, violations, out)
	}

	for _, src := range doc.ScriptSources() {
		if !containsAny(src, r.allow) {
			out.AutoloadedJS = append(out.AutoloadedJS, src)
		}
	}
	if len(out.AutoloadedJS) > 0 && !root {
		violations = append(violations,
			fmt.Sprintf("Autoloaded JS found: [%s]", strings.Join(out.AutoloadedJS, ", ")))
	}

	for _, c := range resp.Cookies {
		out.CookiesSet = append(out.CookiesSet, c.Name+"="+c.Value)
	}
	if len(out.CookiesSet) > 0 && !root {
		violations = append(violations, "Autoloaded cookies set without user interaction")
	}

	return NewResult(NamePerformance, violations, out)
}
