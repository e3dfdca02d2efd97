package markup

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// VisibleText performs a single tokenizer pass and returns the page's text
// content with whitespace collapsed. Text inside script, style, noscript and
// template elements is not visible and is skipped.
func VisibleText(body io.Reader) (string, error) {
	z := html.NewTokenizer(body)
	var (
		b       strings.Builder
		skipped int
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return collapse(b.String()), nil
			}
			return collapse(b.String()), z.Err()

		case html.StartTagToken:
			tn, _ := z.TagName()
			if isHidden(string(tn)) {
				skipped++
			}

		case html.EndTagToken:
			tn, _ := z.TagName()
			if isHidden(string(tn)) && skipped > 0 {
				skipped--
			}

		case html.TextToken:
			if skipped == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isHidden(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}
