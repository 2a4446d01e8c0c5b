package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanText decodes HTML entities, drops any markup and collapses runs of
// whitespace. Provider free text arrives with both.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsRune(s, '<') {
		return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}
