package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/structured-web-auditor/internal/model"
)

func TestSchema_JSONDocument(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus model.Status
		wantViol   []string
		wantBlocks int
	}{
		{name: "object wrapped", body: `{"@type": "WebSite"}`, wantStatus: model.StatusPass, wantBlocks: 1},
		{name: "list used as is", body: `[{"a": 1}, {"b": 2}]`, wantStatus: model.StatusPass, wantBlocks: 2},
		{name: "number unsupported", body: `42`, wantStatus: model.StatusFail, wantViol: []string{"Unsupported JSON structure."}},
		{name: "null unsupported", body: `null`, wantStatus: model.StatusFail, wantViol: []string{"Unsupported JSON structure."}},
		{name: "malformed", body: `{"a": `, wantStatus: model.StatusFail, wantViol: []string{"Invalid JSON."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewSchema().Evaluate(context.Background(), NewPage("https://example.com/ai.json", tt.body), nil)

			assertInvariant(t, res)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantViol, res.Violations)

			payload := res.Payload.(*SchemaPayload)
			assert.Len(t, payload.JSONLD, tt.wantBlocks)
			assert.Equal(t, tt.wantStatus == model.StatusPass, payload.HasJSONLD)
		})
	}
}

func TestSchema_Markup(t *testing.T) {
	body := `<html><head>
	<script type="application/ld+json">{"@type": "Organization", "name": "Edge"}</script>
	<script type="application/ld+json">[{"@type": "WebPage"}, {"@type": "Dataset"}]</script>
	<script type="application/ld+json">{ broken json </script>
	<script type="application/ld+json">"just a string"</script>
	</head><body></body></html>`

	res := NewSchema().Evaluate(context.Background(), NewPage("https://example.com/about", body), nil)

	assertInvariant(t, res)
	assert.Equal(t, model.StatusPass, res.Status)
	payload := res.Payload.(*SchemaPayload)
	assert.True(t, payload.HasJSONLD)
	assert.False(t, payload.HasMicrodata)
	require.Len(t, payload.JSONLD, 3)
}

func TestSchema_MicrodataOnlyPasses(t *testing.T) {
	body := `<html><body><div itemscope itemtype="https://schema.org/Person">
	<span itemprop="name">Ada</span></div></body></html>`

	res := NewSchema().Evaluate(context.Background(), NewPage("https://example.com/team", body), nil)

	assertInvariant(t, res)
	assert.Equal(t, model.StatusPass, res.Status)
	payload := res.Payload.(*SchemaPayload)
	assert.False(t, payload.HasJSONLD)
	assert.True(t, payload.HasMicrodata)
	assert.True(t, payload.Present())
}

func TestSchema_NoStructuredData(t *testing.T) {
	body := `<html><body><div itemscope></div><p>plain</p></body></html>`

	res := NewSchema().Evaluate(context.Background(), NewPage("https://example.com/plain", body), nil)

	assertInvariant(t, res)
	assert.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, []string{"No structured data found."}, res.Violations)
}
