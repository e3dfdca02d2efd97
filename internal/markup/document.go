// Package markup wraps HTML parsing behind the queries the audit rules need.
package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Bahjat/structured-web-auditor/internal/model"
)

const (
	scriptWithSrc  = "script[src]"
	jsonLDScript   = `script[type="application/ld+json"]`
	itemScope      = "[itemscope]"
	itemProp       = "[itemprop]"
	anchorWithHref = "a[href]"
	popupOrOverlay = "[class*='popup'], [id*='popup'], [class*='overlay'], [id*='overlay']"
)

// Document is a parsed page. It is read-only after Parse and safe for
// concurrent use.
type Document struct {
	doc *goquery.Document
}

// Anchor is a link found in the page body.
type Anchor struct {
	Href string
	Text string
}

// Parse builds a Document from raw markup. The HTML parser is lenient, so
// only reader failures produce an error.
func Parse(body string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// ScriptSources returns the src attribute of every script element that has
// one, in document order.
func (d *Document) ScriptSources() []string {
	var srcs []string
	d.doc.Find(scriptWithSrc).Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		srcs = append(srcs, src)
	})
	return srcs
}

// JSONLDBlocks returns the raw text of every application/ld+json script.
func (d *Document) JSONLDBlocks() []string {
	var blocks []string
	d.doc.Find(jsonLDScript).Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, s.Text())
	})
	return blocks
}

// Anchors returns every anchor carrying an href, with whitespace-collapsed text.
func (d *Document) Anchors() []Anchor {
	var anchors []Anchor
	d.doc.Find(anchorWithHref).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		anchors = append(anchors, Anchor{Href: href, Text: collapse(s.Text())})
	})
	return anchors
}

// HasPopup reports whether any element's class or id mentions popup or overlay.
func (d *Document) HasPopup() bool {
	return d.doc.Find(popupOrOverlay).Length() > 0
}

// Microdata returns one item per itemscope element. Properties belong to the
// nearest enclosing itemscope; items without properties are dropped.
func (d *Document) Microdata() []model.MicrodataItem {
	var items []model.MicrodataItem
	d.doc.Find(itemScope).Each(func(_ int, scope *goquery.Selection) {
		owner := scope.Get(0)
		item := model.MicrodataItem{
			Type:  scope.AttrOr("itemtype", ""),
			Props: make(map[string]string),
		}

		scope.Find(itemProp).Each(func(_ int, prop *goquery.Selection) {
			if nearestScope(prop.Get(0)) != owner {
				return
			}
			key := prop.AttrOr("itemprop", "")
			val := prop.AttrOr("content", "")
			if val == "" {
				val = collapse(prop.Text())
			}
			item.Props[key] = val
		})

		if len(item.Props) == 0 {
			return
		}
		if raw, err := goquery.OuterHtml(scope); err == nil {
			item.HTML = raw
		}
		items = append(items, item)
	})
	return items
}

// nearestScope walks up from a property element to the itemscope that owns it.
func nearestScope(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		for _, a := range p.Attr {
			if a.Key == "itemscope" {
				return p
			}
		}
	}
	return nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
