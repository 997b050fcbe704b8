package api

import (
	"strings"

	"golang.org/x/net/html"
)

// SnippetText renders an HTML search snippet as plain text, collapsing whitespace.
// Highlight tags such as <b> or <em> are dropped; their text is kept.
func SnippetText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var b strings.Builder
	var walker func(*html.Node)
	walker = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walker(c)
		}
	}
	walker(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}
