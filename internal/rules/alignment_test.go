package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/structured-web-auditor/internal/model"
)

// evaluateAlignment runs the schema rule first, as the pipeline does.
func evaluateAlignment(t *testing.T, url, body string, s Settings) *AlignmentPayload {
	t.Helper()
	page := NewPage(url, body)
	prior := Results{NameSchema: NewSchema().Evaluate(context.Background(), page, nil)}

	res := NewAlignment(s).Evaluate(context.Background(), page, prior)
	assert.Equal(t, model.StatusPass, res.Status)
	assert.Empty(t, res.Violations)

	payload, ok := res.Payload.(*AlignmentPayload)
	require.True(t, ok)
	return payload
}

func TestAlignment_OnlyStopWordsDeclared(t *testing.T) {
	body := `<html><head><script type="application/ld+json">{"description": "mesh node verification"}</script></head>
<body><p>Welcome to our bakery.</p></body></html>`

	payload := evaluateAlignment(t, "https://example.com/about", body, DefaultSettings())

	assert.Zero(t, payload.Percent)
	assert.Zero(t, payload.TotalSDTerms)
	assert.Empty(t, payload.MissingTerms)
	assert.Empty(t, payload.SharedTerms)
	assert.Empty(t, payload.MissingViolations())
}

func TestAlignment_Percent(t *testing.T) {
	body := `<html><head>
<script type="application/ld+json">{"@type": "Bakery", "description": "Fresh sourdough bread", "keywords": ["croissant", "Pastry"]}</script>
</head><body>
<h1>Fresh bread daily</h1>
<p>Our croissant is famous.</p>
<script>var sourdough = 1;</script>
</body></html>`

	payload := evaluateAlignment(t, "https://example.com/about", body, DefaultSettings())

	assert.Equal(t, 5, payload.TotalSDTerms)
	assert.Equal(t, []string{"bread", "croissant", "fresh"}, payload.SharedTerms)
	assert.Equal(t, []string{"pastry", "sourdough"}, payload.MissingTerms)
	assert.Equal(t, 60.0, payload.Percent)
	assert.Equal(t, []string{
		"Missing structured keyword: pastry",
		"Missing structured keyword: sourdough",
	}, payload.MissingViolations())
}

func TestAlignment_NestedAndMicrodata(t *testing.T) {
	body := `<html><head>
<script type="application/ld+json">{"mainEntity": {"offers": [{"itemDescription": "artisan cheese"}]}}</script>
</head><body>
<div itemscope itemtype="https://schema.org/Product">
  <span itemprop="name">Cheddar</span>
  <meta itemprop="description" content="aged cheddar">
</div>
<p>Artisan cheddar, aged twelve months.</p>
</body></html>`

	payload := evaluateAlignment(t, "https://example.com/shop", body, DefaultSettings())

	assert.Equal(t, []string{"aged", "artisan", "cheddar"}, payload.SharedTerms)
	assert.Equal(t, []string{"cheese"}, payload.MissingTerms)
	assert.Equal(t, 75.0, payload.Percent)
}

func TestAlignment_JSONPageUsesRawBody(t *testing.T) {
	body := `{"description": "carbon neutral hosting", "name": "carbon hosting"}`

	payload := evaluateAlignment(t, "https://example.com/ai.json", body, DefaultSettings())

	// The raw body contains every declared word, including the description itself.
	assert.Equal(t, 100.0, payload.Percent)
	assert.Empty(t, payload.MissingTerms)
}

func TestAlignment_NoSchemaResult(t *testing.T) {
	res := NewAlignment(DefaultSettings()).Evaluate(context.Background(),
		NewPage("https://example.com/", "<p>text</p>"), Results{})

	payload := res.Payload.(*AlignmentPayload)
	assert.Zero(t, payload.Percent)
	assert.Zero(t, payload.TotalSDTerms)
}

func TestAlignment_ExtraStopWords(t *testing.T) {
	s := DefaultSettings()
	s.ExtraStopWords = []string{"Bakery"}
	body := `<script type="application/ld+json">{"description": "bakery cakes"}</script><p>cakes</p>`

	payload := evaluateAlignment(t, "https://example.com/x", body, s)

	assert.Equal(t, []string{"cakes"}, payload.SharedTerms)
	assert.Equal(t, 100.0, payload.Percent)
}

func TestAlignment_SharedTermsAreSubset(t *testing.T) {
	body := `<script type="application/ld+json">{"description": "alpha beta gamma delta"}</script><p>beta delta epsilon</p>`

	payload := evaluateAlignment(t, "https://example.com/x", body, DefaultSettings())

	assert.Len(t, payload.SharedTerms, 2)
	assert.Equal(t, payload.TotalSDTerms, len(payload.SharedTerms)+len(payload.MissingTerms))
	assert.GreaterOrEqual(t, payload.Percent, 0.0)
	assert.LessOrEqual(t, payload.Percent, 100.0)
	assert.Equal(t, 50.0, payload.Percent)
}

func TestAlignment_DependsOnSchema(t *testing.T) {
	assert.Equal(t, []string{NameSchema}, NewAlignment(DefaultSettings()).DependsOn())
}
