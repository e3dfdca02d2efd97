package rules

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Bahjat/structured-web-auditor/internal/jsonld"
)

const (
	pathVerifyJSON = "/verify.json"
	pathVerify     = "/verify"
	pathVerifyHTML = "/verify.html"
)

// BacklinkPayload records where the trust backlink was found. Score is set
// only for required paths.
type BacklinkPayload struct {
	Required     bool
	Found        bool
	SDBacklink   bool
	HTMLBacklink bool
	Score        *int
}

func (*BacklinkPayload) payload() {}

// Backlink checks that participating pages point back to the trust URL.
// Off the required paths the backlink is measured but never reported.
type Backlink struct {
	trustURL string
	marker   string
	required []string
}

// NewBacklink returns the backlink rule for the configured trust URL.
func NewBacklink(s Settings) *Backlink {
	return &Backlink{
		trustURL: strings.ToLower(strings.TrimSpace(s.TrustURL)),
		marker:   s.trustMarker(),
		required: slices.Clone(s.RequiredPaths),
	}
}

func (*Backlink) Name() string { return NameBacklink }

func (r *Backlink) Evaluate(_ context.Context, page *Page, _ Results) Result {
	path := NormalizePath(page.URL)
	verifyHTML := path == pathVerify || path == pathVerifyHTML
	out := &BacklinkPayload{Required: slices.Contains(r.required, path)}

	var violations []string
	if path == pathVerifyJSON {
		if v, err := jsonld.Parse([]byte(page.Body)); err == nil {
			out.SDBacklink = ContainsBacklink(v, r.trustURL)
		}
		if !out.SDBacklink {
			violations = append(violations,
				"Missing required isPartOf backlink in /verify.json structured data.")
		}
	} else {
		doc, err := page.Document()
		if err != nil {
			violations = append(violations, fmt.Sprintf("Markup parse error: %v", err))
		} else {
			for _, raw := range doc.JSONLDBlocks() {
				v, err := jsonld.Parse([]byte(raw))
				if err != nil {
					continue
				}
				if ContainsBacklink(v, r.trustURL) {
					out.SDBacklink = true
					break
				}
			}

			if verifyHTML {
				for _, a := range doc.Anchors() {
					href := strings.ToLower(strings.TrimSpace(a.Href))
					if href == r.trustURL && strings.Contains(strings.ToLower(a.Text), r.marker) {
						out.HTMLBacklink = true
						break
					}
				}
			}
		}

		if out.Required && !out.SDBacklink {
			violations = append(violations,
				fmt.Sprintf("%s is missing isPartOf backlink in structured data.", path))
		}
		if verifyHTML && !out.HTMLBacklink {
			violations = append(violations,
				fmt.Sprintf("%s is missing visible HTML link to %s", path, r.trustURL))
		}
		if verifyHTML && !out.SDBacklink && !out.HTMLBacklink {
			violations = append(violations,
				fmt.Sprintf("%s must contain both structured data and visible HTML backlink.", path))
		}
	}

	out.Found = out.SDBacklink || out.HTMLBacklink

	if !out.Required {
		return NewResult(NameBacklink, nil, out)
	}

	score := 0
	if out.SDBacklink {
		score++
	}
	if verifyHTML && out.HTMLBacklink {
		score++
	}
	out.Score = &score

	return NewResult(NameBacklink, violations, out)
}

// ContainsBacklink searches structured data at any depth for a reference to
// trustURL: an isPartOf object whose url matches, a sameAs list containing
// it, or any string member equal to it. Keys and URLs compare case-insensitively.
func ContainsBacklink(v jsonld.Value, trustURL string) bool {
	target := strings.ToLower(strings.TrimSpace(trustURL))
	matches := func(s string) bool {
		return strings.ToLower(strings.TrimSpace(s)) == target
	}

	return jsonld.Walk(v, func(key string, val jsonld.Value) jsonld.Action {
		switch strings.ToLower(key) {
		case "ispartof":
			if u, ok := val.Get("url"); ok {
				if s, ok := u.StringValue(); ok && matches(s) {
					return jsonld.Stop
				}
			}
		case "sameas":
			if val.IsArray() {
				for _, item := range val.Array {
					if matches(item.Text()) {
						return jsonld.Stop
					}
				}
			}
		}
		if s, ok := val.StringValue(); ok && matches(s) {
			return jsonld.Stop
		}
		return jsonld.Descend
	})
}
