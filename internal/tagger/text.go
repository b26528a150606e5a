package tagger

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/newsfeed/internal/textnorm"
	"github.com/kljensen/snowball/english"
)

const blockElements = "p,div,br,li,h1,h2,h3,h4,h5,h6,td,tr,blockquote,figcaption"

// CleanText strips markup, decodes entities and collapses whitespace.
// Plain text passes through the HTML parser untouched apart from entities.
func CleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			doc.Find("script,style,noscript").Remove()
			doc.Find(blockElements).AppendHtml(" ")
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// token is one kept word: its stem and the folded surface form it came from.
type token struct {
	stem    string
	surface string
}

func (t *Tagger) tokenize(text string) []token {
	words := textnorm.Words(text)
	tokens := make([]token, 0, len(words))
	for _, w := range words {
		if textnorm.IsNumeric(w) || t.isStopword(w) {
			continue
		}
		stem := english.Stem(w, false)
		if len([]rune(stem)) < t.cfg.MinKeywordLength || t.isStopword(stem) {
			continue
		}
		tokens = append(tokens, token{stem: stem, surface: w})
	}
	return tokens
}

func stemSet(tokens []token) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok.stem] = struct{}{}
	}
	return set
}
