package rules

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Bahjat/structured-web-auditor/internal/fetcher"
)

// ZeroTrustPayload lists what the page loads or shows without user action.
// DebugLog is the ordered trace of the checks.
type ZeroTrustPayload struct {
	AutoloadedScripts []string
	Cookies           []string
	PopupDetected     bool
	DebugLog          []string
}

func (*ZeroTrustPayload) payload() {}

// ZeroTrust re-examines a page for edge-disallowed scripts, cookies set on a
// fresh request, and popup or overlay elements. Findings fail every page
// except the root, where they are only recorded.
type ZeroTrust struct {
	prober  fetcher.Fetcher
	allow   []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewZeroTrust returns the rule. A nil logger discards the trace.
func NewZeroTrust(prober fetcher.Fetcher, s Settings, logger *slog.Logger) *ZeroTrust {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ZeroTrust{
		prober:  prober,
		allow:   slices.Clone(s.EdgeAllowList),
		timeout: s.probeTimeout(),
		logger:  logger,
	}
}

func (*ZeroTrust) Name() string { return NameZeroTrust }

func (r *ZeroTrust) Evaluate(ctx context.Context, page *Page, _ Results) Result {
	out := &ZeroTrustPayload{}
	trace := func(line string) {
		out.DebugLog = append(out.DebugLog, line)
		r.logger.DebugContext(ctx, line, "rule", NameZeroTrust, "url", page.URL)
	}
	trace("Zero Trust Audit: " + page.URL)

	doc, err := page.Document()
	if err != nil {
		trace(fmt.Sprintf("Markup parse error: %v", err))
		return NewResult(NameZeroTrust, []string{fmt.Sprintf("Markup parse error: %v", err)}, out)
	}

	for _, src := range doc.ScriptSources() {
		if !containsAny(src, r.allow) {
			out.AutoloadedScripts = append(out.AutoloadedScripts, src)
		}
	}
	if len(out.AutoloadedScripts) > 0 {
		trace(fmt.Sprintf("Autoloaded scripts found: [%s]", strings.Join(out.AutoloadedScripts, ", ")))
	} else {
		trace("No disallowed autoloaded JS")
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	resp, probeErr := r.prober.Fetch(probeCtx, page.URL)
	if probeErr != nil {
		trace(fmt.Sprintf("Probe request failed: %v", probeErr))
	} else {
		for _, c := range resp.Cookies {
			out.Cookies = append(out.Cookies, c.Name+"="+c.Value)
		}
	}
	if len(out.Cookies) > 0 {
		trace(fmt.Sprintf("Cookies set without user action: [%s]", strings.Join(out.Cookies, ", ")))
	} else {
		trace("No cookies set by server")
	}

	out.PopupDetected = doc.HasPopup()
	if out.PopupDetected {
		trace("Popup or overlay elements detected")
	} else {
		trace("No popup or overlay detected")
	}

	var violations []string
	if probeErr != nil {
		violations = append(violations, fmt.Sprintf("Zero-trust probe request failed: %v", probeErr))
	}
	if !page.IsRoot() {
		if len(out.AutoloadedScripts) > 0 {
			violations = append(violations,
				fmt.Sprintf("Autoloaded JS on non-homepage: [%s]", strings.Join(out.AutoloadedScripts, ", ")))
		}
		if len(out.Cookies) > 0 {
			violations = append(violations, "Cookies set without interaction")
		}
		if out.PopupDetected {
			violations = append(violations, "Popup or overlay detected on load")
		}
	}

	res := NewResult(NameZeroTrust, violations, out)
	trace(fmt.Sprintf("Page Status: %s", res.Status))
	return res
}
