package rules

import (
	"strings"
	"unicode"
)

const minTokenLen = 3

// defaultStopWords are generic English words plus terms that appear on every
// participating site and so carry no page-specific meaning.
var defaultStopWords = []string{
	"the", "and", "for", "with", "that", "this", "from", "are", "was", "were",
	"has", "have", "had", "you", "your", "our", "but", "not", "any", "can",
	"more", "all", "its", "out", "get", "how", "use", "see", "now", "new",
	"we", "us", "they", "their", "them", "it", "on", "in", "by", "as", "an",
	"of", "a", "to", "is", "or", "be", "at", "via", "if",

	"structured", "web", "ai", "indexer", "resolver", "node", "mesh",
	"verify", "verification", "dual", "layered", "handshake", "agent", "subnode",
	"compliance", "claim", "license", "category", "link", "endpoint", "semantic", "trust",
}

// Tokenizer splits text into case-folded keyword sets.
type Tokenizer struct {
	stop map[string]struct{}
}

// NewTokenizer returns a tokenizer that drops the default stop words and extra.
func NewTokenizer(extra ...string) *Tokenizer {
	stop := make(map[string]struct{}, len(defaultStopWords)+len(extra))
	for _, w := range defaultStopWords {
		stop[w] = struct{}{}
	}
	for _, w := range extra {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stop: stop}
}

// Keywords returns the distinct keywords of text. A keyword is a whole word
// of at least three ASCII letters or digits that is not a stop word; words
// containing underscores or non-ASCII letters are not keywords.
func (t *Tokenizer) Keywords(text string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	for _, w := range words {
		if len(w) < minTokenLen || !isASCIIAlnum(w) {
			continue
		}
		if _, stop := t.stop[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

func isASCIIAlnum(w string) bool {
	for i := 0; i < len(w); i++ {
		c := w[i]
		if !('a' <= c && c <= 'z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
