package audit

import (
	"math"
	"strings"

	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/rules"
)

const (
	maxScore              = 100
	missingDataPenalty    = 25
	privacyPenalty        = 25
	slowHomePenalty       = 10
	failedStatusPenalty   = 5
	backlinkPointPenalty  = 10
	maxBacklinkPerPage    = 2
	maxAlignmentPenalty   = 10.0
	defaultLoadBudgetMs   = 1000
	defaultAlignmentFloor = 70.0
)

// backlinkScoredPaths are the paths on which a missing backlink costs points.
// "/verify" is required by the backlink rule but not scored here.
var backlinkScoredPaths = map[string]bool{
	"/":            true,
	"/verify.html": true,
	"/verify.json": true,
}

// privacyMarkers match violations about cookies, popups and autoloaded scripts.
var privacyMarkers = []string{"cookie", "popup", "autoloaded js"}

// Scorer turns a merged page result into a 0-100 score.
type Scorer struct {
	LoadBudgetMs       int
	AlignmentThreshold float64
}

// DefaultScorer returns the scorer with a 1000ms home page budget and a 70%
// alignment threshold.
func DefaultScorer() Scorer {
	return Scorer{LoadBudgetMs: defaultLoadBudgetMs, AlignmentThreshold: defaultAlignmentFloor}
}

// Score applies the penalties in order and floors the result at zero. It is
// a pure function of r.
func (s Scorer) Score(r *model.PageAuditResult) int {
	if r == nil {
		return 0
	}
	score := float64(maxScore)
	path := scoredPath(r.URL)

	if !r.StructuredDataPresent {
		score -= missingDataPenalty
	}

	if backlinkScoredPaths[path] && r.BacklinkScore != nil {
		score -= float64((maxBacklinkPerPage - *r.BacklinkScore) * backlinkPointPenalty)
	}

	if hasPrivacyViolation(r.Violations) {
		score -= privacyPenalty
	}

	if path == "/" && r.LoadTimeMs != nil && *r.LoadTimeMs > s.loadBudget() {
		score -= slowHomePenalty
	}

	// A page that was never fetched has no alignment to judge.
	threshold := s.alignmentThreshold()
	if r.FetchError == "" && r.AlignmentPercent < threshold {
		score -= round2((threshold - r.AlignmentPercent) * maxAlignmentPenalty / threshold)
	}

	if r.Status != model.StatusPass {
		score -= failedStatusPenalty
	}

	return max(int(math.Trunc(score)), 0)
}

func (s Scorer) loadBudget() int {
	if s.LoadBudgetMs <= 0 {
		return defaultLoadBudgetMs
	}
	return s.LoadBudgetMs
}

func (s Scorer) alignmentThreshold() float64 {
	if s.AlignmentThreshold <= 0 {
		return defaultAlignmentFloor
	}
	return s.AlignmentThreshold
}

// scoredPath normalizes the page path, treating /index.html as the root.
func scoredPath(url string) string {
	path := rules.NormalizePath(url)
	if path == "/index.html" {
		return "/"
	}
	return path
}

func hasPrivacyViolation(violations []string) bool {
	for _, v := range violations {
		lower := strings.ToLower(v)
		for _, marker := range privacyMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
