package rules

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/Bahjat/structured-web-auditor/internal/jsonld"
	"github.com/Bahjat/structured-web-auditor/internal/markup"
	"github.com/Bahjat/structured-web-auditor/internal/model"
)

// AlignmentPayload compares declared keywords with the visible text.
type AlignmentPayload struct {
	Percent      float64
	SharedTerms  []string
	MissingTerms []string
	TotalSDTerms int
}

func (*AlignmentPayload) payload() {}

// MissingViolations renders one page-level violation per missing term.
func (p *AlignmentPayload) MissingViolations() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.MissingTerms))
	for _, term := range p.MissingTerms {
		out = append(out, "Missing structured keyword: "+term)
	}
	return out
}

// Alignment measures how many keywords declared in description and keywords
// fields also appear in the page text. Missing terms are informational: the
// rule itself passes, and the pipeline reports them as page violations.
type Alignment struct {
	tokens *Tokenizer
}

// NewAlignment returns the semantic-alignment rule.
func NewAlignment(s Settings) *Alignment {
	return &Alignment{tokens: NewTokenizer(s.ExtraStopWords...)}
}

func (*Alignment) Name() string { return NameAlignment }

func (*Alignment) DependsOn() []string { return []string{NameSchema} }

func (r *Alignment) Evaluate(_ context.Context, page *Page, prior Results) Result {
	visible := page.Body
	if !page.IsJSON {
		// VisibleText returns what it read before a tokenizer error.
		visible, _ = markup.VisibleText(strings.NewReader(page.Body))
	}
	textTerms := r.tokens.Keywords(visible)

	declared := make(map[string]struct{})
	if schema := prior.Schema(); schema != nil {
		for term := range r.tokens.Keywords(strings.Join(jsonLDDescriptions(schema.JSONLD), " ")) {
			declared[term] = struct{}{}
		}
		for term := range r.tokens.Keywords(strings.Join(microdataDescriptions(schema.Microdata), " ")) {
			declared[term] = struct{}{}
		}
	}

	out := &AlignmentPayload{TotalSDTerms: len(declared)}
	for term := range declared {
		if _, ok := textTerms[term]; ok {
			out.SharedTerms = append(out.SharedTerms, term)
		} else {
			out.MissingTerms = append(out.MissingTerms, term)
		}
	}
	sort.Strings(out.SharedTerms)
	sort.Strings(out.MissingTerms)

	if len(declared) > 0 {
		out.Percent = round2(float64(len(out.SharedTerms)) / float64(len(declared)) * 100)
	}

	return NewResult(NameAlignment, nil, out)
}

// jsonLDDescriptions collects the text of every member whose key mentions
// description or keywords. Matched members are not searched further.
func jsonLDDescriptions(blocks []jsonld.Value) []string {
	var texts []string
	for _, block := range blocks {
		jsonld.Walk(block, func(key string, val jsonld.Value) jsonld.Action {
			k := strings.ToLower(key)
			if !strings.Contains(k, "description") && !strings.Contains(k, "keywords") {
				return jsonld.Descend
			}
			switch val.Kind {
			case jsonld.String:
				texts = append(texts, val.String)
			case jsonld.Array:
				for _, item := range val.Array {
					texts = append(texts, item.Text())
				}
			}
			return jsonld.Skip
		})
	}
	return texts
}

func microdataDescriptions(items []model.MicrodataItem) []string {
	var texts []string
	for _, item := range items {
		for key, val := range item.Props {
			if strings.Contains(strings.ToLower(key), "description") {
				texts = append(texts, val)
			}
		}
	}
	return texts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
