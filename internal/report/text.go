// Package report renders audit results for people and writes them to disk.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Bahjat/structured-web-auditor/internal/jsonld"
	"github.com/Bahjat/structured-web-auditor/internal/model"
)

const rule = "=================================================="

// textWriter keeps the first write error so rendering code can stay linear.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) println(s string) {
	t.printf("%s\n", s)
}

// RenderPage writes the text report of one page.
func RenderPage(w io.Writer, r *model.PageAuditResult, score int) error {
	t := &textWriter{w: w}
	d := details(r)

	t.printf("URL: %s\n", r.URL)
	t.println("Raw JSON-LD:")
	raw, err := RawJSONLD(d.JSONLD)
	if err != nil {
		return err
	}
	t.printf("%s\n", raw)

	t.println("\n--- AUDIT SUMMARY ---")
	t.printf("Status: %s\n", r.Status)
	t.printf("Score: %d\n", score)
	t.printf("Load time: %s ms\n", optionalInt(r.LoadTimeMs))
	t.printf("Backlink required: %t\n", r.BacklinkRequired)
	t.printf("Backlink found: %t\n", r.BacklinkFound)
	t.printf("Alignment %%: %s%%\n", percent(r.AlignmentPercent))
	t.printf("Structured data present: %t\n\n", r.StructuredDataPresent)

	writeViolations(t, r.Violations, "- ")

	t.println("\nSemantic Terms (shared):")
	for _, term := range d.SharedTerms {
		t.printf("✔ %s\n", term)
	}
	t.println("\nSemantic Terms (missing):")
	for _, term := range d.MissingTerms {
		t.printf("✘ %s\n", term)
	}

	t.println("\nRaw Microdata:")
	for _, item := range d.Microdata {
		t.println(item.HTML)
	}

	if len(d.ZeroTrustLog) > 0 {
		t.println("\n--- Zero Trust Debug ---")
		for _, line := range d.ZeroTrustLog {
			t.println(line)
		}
	}
	return t.err
}

// RenderSite writes the combined text report of a site audit.
func RenderSite(w io.Writer, rep *model.SiteReport) error {
	t := &textWriter{w: w}
	site := rep.Site
	p := site.Participation

	t.printf("SITE REPORT: %s\n", site.Domain)
	t.printf("%s\n\n", rule)
	t.printf("Run: %s\n", rep.RunID)
	t.printf("Generated: %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	t.printf("Total Pages Audited: %d\n", site.TotalPages)
	t.printf("Pages Passed: %d\n", site.PagesPassed)
	t.printf("Pages Failed: %d\n", site.PagesFailed)
	t.printf("Average Score: %s\n", percent(site.AverageScore))
	t.printf("Mesh Health: %s%% Alignment\n", percent(site.AverageAlignment))
	t.printf("Structured Web Participation: %s (%d/4)\n\n", p.Grade, p.Total)

	t.println("Participation Breakdown:")
	t.printf("- /verify.html or /verify: %d/2\n", p.VerifyHTML)
	t.printf("- /verify.json: %d/1\n", p.VerifyJSON)
	t.printf("- / (homepage): %d/1\n\n", p.Home)

	t.println("Per-Page Scores:")
	for i, score := range site.PageScores {
		t.printf("- Page %d: %d\n", i+1, score)
	}

	t.println("\n\n--- AUDIT SUMMARIES ---")
	for i, page := range rep.Pages {
		t.printf("\n--- Page %d ---\n", i+1)
		t.printf("URL: %s\n", page.URL)
		t.printf("Status: %s\n", page.Status)
		t.printf("Load time: %s ms\n", optionalInt(page.LoadTimeMs))
		t.printf("Backlink required: %t\n", page.BacklinkRequired)
		t.printf("Backlink found: %t\n", page.BacklinkFound)
		t.printf("Structured Data: %t\n", page.StructuredDataPresent)
		t.printf("Alignment Score: %s%%\n", percent(page.AlignmentPercent))
		if page.BacklinkScore != nil {
			t.printf("Backlink Score: %d/2 (per page max)\n", *page.BacklinkScore)
		}
		writeViolations(t, page.Violations, " - ")

		if log := details(page).ZeroTrustLog; len(log) > 0 {
			t.println("\n--- DEBUG LOG ---")
			for _, line := range log {
				t.println(line)
			}
		}
	}
	return t.err
}

// RawJSONLD renders structured-data blocks as indented JSON. An empty list
// renders as [].
func RawJSONLD(blocks []jsonld.Value) ([]byte, error) {
	if blocks == nil {
		blocks = []jsonld.Value{}
	}
	out, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: encode json-ld: %w", err)
	}
	return out, nil
}

func writeViolations(t *textWriter, violations []string, bullet string) {
	t.println("Violations:")
	if len(violations) == 0 {
		t.println("None")
		return
	}
	for _, v := range violations {
		t.printf("%s%s\n", bullet, v)
	}
}

func details(r *model.PageAuditResult) *model.PageDetails {
	if r.Details == nil {
		return &model.PageDetails{}
	}
	return r.Details
}

func optionalInt(v *int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.Itoa(*v)
}

// percent prints up to two decimals without trailing zeros: 66.67, 50, 0.
func percent(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
