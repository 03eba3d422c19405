// Package sanitize cleans user-authored text before it reaches the search index.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

var (
	escaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	unescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">")
)

// StripHTML removes markup and keeps the text content of every element.
// Entities in text are decoded.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF; a strings.Reader never fails otherwise.
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// EscapeHTML escapes the three characters that matter for markup: & < >.
func EscapeHTML(s string) string { return escaper.Replace(s) }

// SafeUnescapeHTML reverses EscapeHTML. Other entities are left alone.
func SafeUnescapeHTML(s string) string { return unescaper.Replace(s) }

// Clean strips markup and escapes what remains, the form titles are stored in.
func Clean(s string) string { return EscapeHTML(StripHTML(s)) }
