package rules

import (
	"strings"
	"time"
)

// Settings is the immutable configuration shared by the rule constructors.
// Constructors copy what they keep, so one Settings value may back many
// concurrently used rule sets.
type Settings struct {
	TrustURL        string
	RequiredPaths   []string
	ScriptAllowList []string
	EdgeAllowList   []string
	LoadTimeBudget  time.Duration
	ProbeTimeout    time.Duration
	ExtraStopWords  []string
}

// DefaultSettings returns the settings of the public compliance scheme.
func DefaultSettings() Settings {
	return Settings{
		TrustURL:        "https://structuredweb.org/verify",
		RequiredPaths:   []string{"/", "/verify", "/verify.html", "/verify.json"},
		ScriptAllowList: []string{"kworker", "durable", "edge"},
		EdgeAllowList:   []string{"kworker", "durable", "do.cloudflare"},
		LoadTimeBudget:  time.Second,
		ProbeTimeout:    10 * time.Second,
	}
}

// trustMarker is the text a visible backlink must show: the trust URL
// without its scheme, e.g. "structuredweb.org/verify".
func (s Settings) trustMarker() string {
	marker := strings.ToLower(strings.TrimSpace(s.TrustURL))
	for _, scheme := range []string{"https://", "http://"} {
		marker = strings.TrimPrefix(marker, scheme)
	}
	return marker
}

func (s Settings) probeTimeout() time.Duration {
	if s.ProbeTimeout <= 0 {
		return 10 * time.Second
	}
	return s.ProbeTimeout
}
