// Package rules implements the compliance checks applied to one fetched page.
//
// Every rule is total: it never returns an error and never panics past its
// boundary. A problem evaluating a page becomes a FAIL Result carrying a
// violation message, so one broken rule cannot abort the audit of a page.
package rules

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/Bahjat/structured-web-auditor/internal/markup"
	"github.com/Bahjat/structured-web-auditor/internal/model"
)

// Rule names, also used as keys into Results.
const (
	NamePerformance = "performance"
	NameSchema      = "structured_data"
	NameBacklink    = "backlink"
	NameZeroTrust   = "zero_trust"
	NameAlignment   = "semantic_alignment"
)

// Rule is one independent compliance check.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, page *Page, prior Results) Result
}

// Dependent is implemented by rules that read the output of other rules.
// The pipeline runs a Dependent only after every rule it names has finished.
type Dependent interface {
	DependsOn() []string
}

// Payload is the rule-specific part of a Result.
type Payload interface {
	payload()
}

// Result is the outcome of one rule. Status is FAIL exactly when Violations
// is non-empty; construct it with NewResult to keep that true.
type Result struct {
	Rule       string
	Status     model.Status
	Violations []string
	Payload    Payload
}

// NewResult derives the status from the violations.
func NewResult(rule string, violations []string, p Payload) Result {
	status := model.StatusPass
	if len(violations) > 0 {
		status = model.StatusFail
	}
	return Result{Rule: rule, Status: status, Violations: violations, Payload: p}
}

// Failed returns a FAIL Result for a rule that could not evaluate the page.
func Failed(rule string, format string, args ...any) Result {
	return NewResult(rule, []string{fmt.Sprintf(format, args...)}, nil)
}

// Results holds the finished results of a page keyed by rule name.
type Results map[string]Result

// Schema returns the structured-data payload, or nil if it is not available.
func (rs Results) Schema() *SchemaPayload {
	p, _ := rs[NameSchema].Payload.(*SchemaPayload)
	return p
}

// Performance returns the performance payload, or nil.
func (rs Results) Performance() *PerformancePayload {
	p, _ := rs[NamePerformance].Payload.(*PerformancePayload)
	return p
}

// Backlink returns the backlink payload, or nil.
func (rs Results) Backlink() *BacklinkPayload {
	p, _ := rs[NameBacklink].Payload.(*BacklinkPayload)
	return p
}

// ZeroTrust returns the zero-trust payload, or nil.
func (rs Results) ZeroTrust() *ZeroTrustPayload {
	p, _ := rs[NameZeroTrust].Payload.(*ZeroTrustPayload)
	return p
}

// Alignment returns the semantic-alignment payload, or nil.
func (rs Results) Alignment() *AlignmentPayload {
	p, _ := rs[NameAlignment].Payload.(*AlignmentPayload)
	return p
}

// Page is the immutable input shared by all rules of one audit.
type Page struct {
	URL    string
	Body   string
	IsJSON bool

	path string

	once   sync.Once
	doc    *markup.Document
	docErr error
}

// NewPage builds the rule input for a resolved, post-redirect URL.
func NewPage(resolvedURL, body string) *Page {
	path := ""
	if u, err := url.Parse(resolvedURL); err == nil {
		path = u.Path
	}
	return &Page{
		URL:    resolvedURL,
		Body:   body,
		IsJSON: strings.HasSuffix(strings.ToLower(path), ".json"),
		path:   path,
	}
}

// Path returns the raw URL path of the page.
func (p *Page) Path() string {
	return p.path
}

// IsRoot reports whether the page is the site root.
func (p *Page) IsRoot() bool {
	return p.path == "" || p.path == "/"
}

// Document parses the body once and shares the result between rules.
func (p *Page) Document() (*markup.Document, error) {
	p.once.Do(func() {
		p.doc, p.docErr = markup.Parse(p.Body)
	})
	return p.doc, p.docErr
}

// NormalizePath strips the trailing slash of a URL path; the empty path and
// "/" both normalize to "/". Paths are case-sensitive.
func NormalizePath(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "/"
	}
	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		return "/"
	}
	return path
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
