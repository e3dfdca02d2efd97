package audit

import (
	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/rules"
)

// Participation grades by total backlink score.
const (
	GradePerfect      = "Perfect"
	GradeGoodStanding = "Good Standing"
	GradeNeedsWork    = "Needs Work"
	GradeNotEligible  = "Not Eligible"
)

// Aggregate summarizes the complete, ordered page results of one domain.
// Page scores keep the input order. An empty input yields zero values.
func Aggregate(domain string, pages []*model.PageAuditResult, scorer Scorer) model.SiteAuditResult {
	site := model.SiteAuditResult{
		Domain:     domain,
		TotalPages: len(pages),
		PageScores: make([]int, 0, len(pages)),
	}

	var scoreSum, alignmentSum float64
	for _, p := range pages {
		score := scorer.Score(p)
		site.PageScores = append(site.PageScores, score)
		scoreSum += float64(score)
		alignmentSum += p.AlignmentPercent

		if p.Passed() {
			site.PagesPassed++
		} else {
			site.PagesFailed++
		}
	}

	if n := len(pages); n > 0 {
		site.AverageScore = round2(scoreSum / float64(n))
		site.AverageAlignment = round2(alignmentSum / float64(n))
	}
	site.Participation = participation(pages)
	return site
}

// participation reads the backlink scores recorded on the verify and home
// paths. A later page on the same path overrides an earlier one; pages
// without a score are skipped.
func participation(pages []*model.PageAuditResult) model.Participation {
	var p model.Participation
	for _, page := range pages {
		if page.BacklinkScore == nil {
			continue
		}
		score := *page.BacklinkScore
		switch rules.NormalizePath(page.URL) {
		case "/verify", "/verify.html":
			p.VerifyHTML = score
		case "/verify.json":
			p.VerifyJSON = score
		case "/":
			p.Home = score
		}
	}

	p.Total = min(p.VerifyHTML, 2) + min(p.VerifyJSON, 1) + min(p.Home, 1)
	p.Grade = Grade(p.Total)
	return p
}

// Grade maps a participation total in 0..4 to its label.
func Grade(total int) string {
	switch total {
	case 4:
		return GradePerfect
	case 3:
		return GradeGoodStanding
	case 2:
		return GradeNeedsWork
	default:
		return GradeNotEligible
	}
}
