package rules

import (
	"context"
	"fmt"

	"github.com/Bahjat/structured-web-auditor/internal/jsonld"
	"github.com/Bahjat/structured-web-auditor/internal/model"
)

const (
	violationInvalidJSON     = "Invalid JSON."
	violationUnsupportedJSON = "Unsupported JSON structure."
	violationNoStructured    = "No structured data found."
)

// SchemaPayload is the structured data extracted from a page.
type SchemaPayload struct {
	HasJSONLD    bool
	HasMicrodata bool
	JSONLD       []jsonld.Value
	Microdata    []model.MicrodataItem
}

func (*SchemaPayload) payload() {}

// Present reports whether any structured data was found.
func (p *SchemaPayload) Present() bool {
	return p != nil && (p.HasJSONLD || p.HasMicrodata)
}

// Schema extracts JSON-LD and microdata. A JSON document is itself the
// structured data; markup pages pass when either JSON-LD or microdata is
// present.
type Schema struct{}

// NewSchema returns the structured-data extraction rule.
func NewSchema() *Schema { return &Schema{} }

func (*Schema) Name() string { return NameSchema }

func (r *Schema) Evaluate(_ context.Context, page *Page, _ Results) Result {
	if page.IsJSON {
		return r.evaluateJSON(page)
	}

	out := &SchemaPayload{}
	doc, err := page.Document()
	if err != nil {
		return NewResult(NameSchema, []string{fmt.Sprintf("Markup parse error: %v", err)}, out)
	}

	for _, raw := range doc.JSONLDBlocks() {
		v, err := jsonld.Parse([]byte(raw))
		if err != nil {
			continue
		}
		switch v.Kind {
		case jsonld.Object:
			out.JSONLD = append(out.JSONLD, v)
		case jsonld.Array:
			out.JSONLD = append(out.JSONLD, v.Array...)
		}
	}
	out.HasJSONLD = len(out.JSONLD) > 0

	out.Microdata = doc.Microdata()
	out.HasMicrodata = len(out.Microdata) > 0

	if !out.Present() {
		return NewResult(NameSchema, []string{violationNoStructured}, out)
	}
	return NewResult(NameSchema, nil, out)
}

func (r *Schema) evaluateJSON(page *Page) Result {
	out := &SchemaPayload{}

	v, err := jsonld.Parse([]byte(page.Body))
	if err != nil {
		return NewResult(NameSchema, []string{violationInvalidJSON}, out)
	}

	switch v.Kind {
	case jsonld.Object:
		out.JSONLD = []jsonld.Value{v}
	case jsonld.Array:
		out.JSONLD = v.Array
	default:
		return NewResult(NameSchema, []string{violationUnsupportedJSON}, out)
	}
	out.HasJSONLD = true

	return NewResult(NameSchema, nil, out)
}
