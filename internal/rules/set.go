package rules

import (
	"log/slog"

	"github.com/Bahjat/structured-web-auditor/internal/fetcher"
)

// DefaultSet returns the five rules in report order: Performance,
// Structured-Data, Backlink, Zero-Trust, Semantic-Alignment.
func DefaultSet(prober fetcher.Fetcher, s Settings, logger *slog.Logger) []Rule {
	return []Rule{
		NewPerformance(prober, s),
		NewSchema(),
		NewBacklink(s),
		NewZeroTrust(prober, s, logger),
		NewAlignment(s),
	}
}
