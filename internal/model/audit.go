package model

import (
	"time"

	"github.com/Bahjat/structured-web-auditor/internal/jsonld"
)

// Status is the verdict of a rule or a whole page.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// MicrodataItem is one element carrying itemscope together with its properties.
type MicrodataItem struct {
	Type  string            `json:"type" yaml:"type"`
	Props map[string]string `json:"props" yaml:"props"`
	HTML  string            `json:"html" yaml:"html"`
}

// PageAuditResult is the merged outcome of every rule for one page.
type PageAuditResult struct {
	URL                   string       `json:"url" yaml:"url"`
	Status                Status       `json:"status" yaml:"status"`
	Violations            []string     `json:"violations" yaml:"violations"`
	LoadTimeMs            *int         `json:"load_time_ms" yaml:"load_time_ms"`
	BacklinkRequired      bool         `json:"backlink_required" yaml:"backlink_required"`
	BacklinkFound         bool         `json:"backlink_found" yaml:"backlink_found"`
	BacklinkScore         *int         `json:"backlink_score" yaml:"backlink_score"`
	AlignmentPercent      float64      `json:"alignment_percent" yaml:"alignment_percent"`
	StructuredDataPresent bool         `json:"structured_data_present" yaml:"structured_data_present"`
	FetchError            string       `json:"fetch_error,omitempty" yaml:"fetch_error,omitempty"`
	Details               *PageDetails `json:"details,omitempty" yaml:"details,omitempty"`
}

// Passed reports whether the page passed every rule.
func (r *PageAuditResult) Passed() bool {
	return r.Status == StatusPass
}

// PageDetails carries the raw rule payloads that reports print.
type PageDetails struct {
	JSONLD       []jsonld.Value  `json:"json_ld" yaml:"json_ld"`
	Microdata    []MicrodataItem `json:"microdata" yaml:"microdata"`
	SharedTerms  []string        `json:"shared_terms" yaml:"shared_terms"`
	MissingTerms []string        `json:"missing_terms" yaml:"missing_terms"`
	ZeroTrustLog []string        `json:"zero_trust_log" yaml:"zero_trust_log"`
}

// Participation summarizes backlink coverage on the three backlink-bearing paths.
type Participation struct {
	VerifyHTML int    `json:"verify_html" yaml:"verify_html"`
	VerifyJSON int    `json:"verify_json" yaml:"verify_json"`
	Home       int    `json:"home" yaml:"home"`
	Total      int    `json:"total" yaml:"total"`
	Grade      string `json:"grade" yaml:"grade"`
}

// SiteAuditResult aggregates the page results of one domain.
type SiteAuditResult struct {
	Domain           string        `json:"domain" yaml:"domain"`
	TotalPages       int           `json:"total_pages" yaml:"total_pages"`
	PagesPassed      int           `json:"pages_passed" yaml:"pages_passed"`
	PagesFailed      int           `json:"pages_failed" yaml:"pages_failed"`
	PageScores       []int         `json:"page_scores" yaml:"page_scores"`
	AverageScore     float64       `json:"average_score" yaml:"average_score"`
	AverageAlignment float64       `json:"average_alignment" yaml:"average_alignment"`
	Participation    Participation `json:"participation" yaml:"participation"`
}

// PageReport pairs a page result with its score.
type PageReport struct {
	Result *PageAuditResult `json:"result" yaml:"result"`
	Score  int              `json:"score" yaml:"score"`
}

// SiteReport is the full outcome of a site audit run.
type SiteReport struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Site        SiteAuditResult    `json:"site" yaml:"site"`
	Pages       []*PageAuditResult `json:"pages" yaml:"pages"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error" yaml:"error"`
	StatusCode int    `json:"status_code" yaml:"status_code"`
	Message    string `json:"message" yaml:"message"`
}
