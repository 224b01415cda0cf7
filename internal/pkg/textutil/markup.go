// Package textutil cleans provider text before it reaches clients.
package textutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripMarkup removes HTML tags from s, decodes entities and collapses runs
// of whitespace. Naver search wraps matched terms in <b> tags.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapse(s)
	}
	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
