package audit

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/structured-web-auditor/internal/model"
	"github.com/Bahjat/structured-web-auditor/internal/rules"
)

const homeBody = `<html><head>
<script type="application/ld+json">{"@type": "WebSite", "description": "Handmade pottery studio", "isPartOf": {"url": "https://structuredweb.org/verify"}}</script>
</head><body><h1>Handmade pottery</h1></body></html>`

const verifyJSONBody = `{"isPartOf": {"url": "https://structuredweb.org/verify"}}`

const trackedBody = `<html><head>
<script src="https://cdn.example.com/tracker.js"></script>
</head><body><div id="newsletter-popup">Subscribe</div></body></html>`

func TestPipeline_Audit_HomePage(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": {body: homeBody, elapsed: 200 * time.Millisecond},
	})

	res := newTestPipeline(site).Audit(context.Background(), "https://example.com/")

	assert.Equal(t, model.StatusPass, res.Status)
	assert.Equal(t, []string{"Missing structured keyword: studio"}, res.Violations)
	require.NotNil(t, res.LoadTimeMs)
	assert.Equal(t, 200, *res.LoadTimeMs)
	assert.True(t, res.StructuredDataPresent)
	assert.True(t, res.BacklinkRequired)
	assert.True(t, res.BacklinkFound)
	require.NotNil(t, res.BacklinkScore)
	assert.Equal(t, 1, *res.BacklinkScore)
	assert.Equal(t, 66.67, res.AlignmentPercent)
	assert.Empty(t, res.FetchError)

	require.NotNil(t, res.Details)
	assert.Len(t, res.Details.JSONLD, 1)
	assert.Equal(t, []string{"handmade", "pottery"}, res.Details.SharedTerms)
	assert.Equal(t, []string{"studio"}, res.Details.MissingTerms)
	assert.Equal(t, "Page Status: PASS", res.Details.ZeroTrustLog[len(res.Details.ZeroTrustLog)-1])

	assert.Equal(t, 89, DefaultScorer().Score(res))
}

func TestPipeline_Audit_ViolationOrder(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"https://example.com/about": {
			body:    trackedBody,
			elapsed: 50 * time.Millisecond,
			cookies: []*http.Cookie{{Name: "sid", Value: "1"}},
		},
	})

	res := newTestPipeline(site).Audit(context.Background(), "https://example.com/about")

	assert.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, []string{
		"Autoloaded JS found: [https://cdn.example.com/tracker.js]",
		"Autoloaded cookies set without user interaction",
		"No structured data found.",
		"Autoloaded JS on non-homepage: [https://cdn.example.com/tracker.js]",
		"Cookies set without interaction",
		"Popup or overlay detected on load",
	}, res.Violations)
	assert.False(t, res.BacklinkRequired)
	assert.Nil(t, res.BacklinkScore)
	assert.Zero(t, res.AlignmentPercent)

	assert.Equal(t, 35, DefaultScorer().Score(res))
}

func TestPipeline_Audit_SlowHomeWithTrackers(t *testing.T) {
	body := `<html><head>
<script type="application/ld+json">{"description": "pottery", "isPartOf": {"url": "https://structuredweb.org/verify"}}</script>
<script src="https://cdn.example.com/tracker.js"></script>
</head><body><p>pottery</p></body></html>`
	site := newFakeSite(map[string]fakePage{
		"https://example.com/": {
			body:    body,
			elapsed: 1500 * time.Millisecond,
			cookies: []*http.Cookie{{Name: "sid", Value: "1"}},
		},
	})

	res := newTestPipeline(site).Audit(context.Background(), "https://example.com/")

	assert.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, []string{"Homepage load time exceeds 1000ms: 1500ms"}, res.Violations)
	// 100 - 10 backlink (root max is 1 of 2) - 10 load time - 5 status.
	assert.Equal(t, 75, DefaultScorer().Score(res))
}

func TestPipeline_Audit_FetchFailure(t *testing.T) {
	site := newFakeSite(nil)

	res := newTestPipeline(site).Audit(context.Background(), "https://nowhere.invalid/")

	assert.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, "https://nowhere.invalid/", res.URL)
	assert.Equal(t, []string{"Failed to fetch URL: " + errNoSuchHost.Error()}, res.Violations)
	assert.Equal(t, "unreachable", res.FetchError)
	assert.Nil(t, res.BacklinkScore)
	assert.Nil(t, res.LoadTimeMs)
	// Only the primary fetch happened; no rule probed the page.
	assert.Equal(t, 1, site.callsTo("https://nowhere.invalid/"))

	// Missing data -25, FAIL -5; an unfetched page has no alignment penalty.
	assert.Equal(t, 70, DefaultScorer().Score(res))
}

func TestPipeline_Audit_UsesFinalURL(t *testing.T) {
	site := newFakeSite(map[string]fakePage{
		"http://example.com/verify": {
			finalURL: "https://example.com/verify.json",
			body:     verifyJSONBody,
		},
		"https://example.com/verify.json": {body: verifyJSONBody},
	})

	res := newTestPipeline(site).Audit(context.Background(), "http://example.com/verify")

	assert.Equal(t, "https://example.com/verify.json", res.URL)
	assert.Equal(t, model.StatusPass, res.Status)
	require.NotNil(t, res.BacklinkScore)
	assert.Equal(t, 1, *res.BacklinkScore)
}

func TestPipeline_Audit_CancelledContext(t *testing.T) {
	site := newFakeSite(map[string]fakePage{"https://example.com/": {body: homeBody}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestPipeline(site).Audit(ctx, "https://example.com/")

	assert.Equal(t, model.StatusFail, res.Status)
	assert.Len(t, res.Violations, 1)
	assert.Contains(t, res.Violations[0], "Failed to fetch URL")
}

// panicRule simulates a rule with a bug.
type panicRule struct{}

func (panicRule) Name() string { return "broken" }

func (panicRule) Evaluate(context.Context, *rules.Page, rules.Results) rules.Result {
	panic("index out of range")
}

// liarRule reports FAIL without any violation.
type liarRule struct{}

func (liarRule) Name() string { return "liar" }

func (liarRule) Evaluate(context.Context, *rules.Page, rules.Results) rules.Result {
	return rules.Result{Status: model.StatusFail}
}

func TestPipeline_Evaluate_RecoversPanics(t *testing.T) {
	p := NewPipeline(nil, []rules.Rule{panicRule{}, liarRule{}, rules.NewSchema()}, nil, 0)

	res := p.Evaluate(context.Background(), rules.NewPage("https://example.com/x", homeBody))

	assert.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, []string{"broken rule failed: index out of range"}, res.Violations)
	assert.True(t, res.StructuredDataPresent)
}

// orderRule records when it ran relative to its dependencies.
type orderRule struct {
	name    string
	deps    []string
	clock   *atomic.Int32
	sawDeps *bool
}

func (r orderRule) Name() string { return r.name }

func (r orderRule) DependsOn() []string { return r.deps }

func (r orderRule) Evaluate(_ context.Context, _ *rules.Page, prior rules.Results) rules.Result {
	r.clock.Add(1)
	if r.sawDeps != nil {
		all := true
		for _, d := range r.deps {
			if _, ok := prior[d]; !ok {
				all = false
			}
		}
		*r.sawDeps = all
	}
	return rules.NewResult(r.name, nil, nil)
}

func TestPipeline_Evaluate_DependencyWaves(t *testing.T) {
	var clock atomic.Int32
	var sawDeps bool
	rs := []rules.Rule{
		orderRule{name: "last", deps: []string{"middle"}, clock: &clock, sawDeps: &sawDeps},
		orderRule{name: "middle", deps: []string{"first", "unknown"}, clock: &clock},
		orderRule{name: "first", clock: &clock},
	}

	res := NewPipeline(nil, rs, nil, 0).Evaluate(context.Background(), rules.NewPage("https://example.com/", ""))

	assert.Equal(t, model.StatusPass, res.Status)
	assert.EqualValues(t, 3, clock.Load())
	assert.True(t, sawDeps)
}

func TestPipeline_Evaluate_CycleStillRuns(t *testing.T) {
	var clock atomic.Int32
	rs := []rules.Rule{
		orderRule{name: "a", deps: []string{"b"}, clock: &clock},
		orderRule{name: "b", deps: []string{"a"}, clock: &clock},
	}

	NewPipeline(nil, rs, nil, 0).Evaluate(context.Background(), rules.NewPage("https://example.com/", ""))

	assert.EqualValues(t, 2, clock.Load())
}
