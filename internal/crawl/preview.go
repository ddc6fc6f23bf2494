package crawl

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// previewLimit caps extracted page previews, in runes.
const previewLimit = 400

// skippedTags are elements whose subtrees carry no readable text.
var skippedTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
}

// extractPreview renders the readable text of an HTML page: script, style and
// noscript subtrees are dropped, remaining text nodes are trimmed and joined
// with single spaces, and the result is capped at limit runes.
func extractPreview(r io.Reader, limit int) string {
	doc, err := html.Parse(r)
	if err != nil {
		return ""
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skippedTags[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.Join(parts, " ")
	if runes := []rune(text); len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}
