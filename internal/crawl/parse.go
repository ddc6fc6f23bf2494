package crawl

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// parseResults extracts search results from the endpoint's HTML response.
// Each result lives in a div.result__body holding an a.result__a link and an
// optional .result__snippet element.
func parseResults(r io.Reader) ([]SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	var results []SearchResult
	for _, body := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "div" && hasClass(n, "result__body")
	}) {
		link := findFirst(body, func(n *html.Node) bool {
			return n.Data == "a" && hasClass(n, "result__a")
		})
		if link == nil {
			continue
		}
		href := attr(link, "href")
		if href == "" {
			continue
		}

		snippet := findFirst(body, func(n *html.Node) bool {
			return (n.Data == "a" || n.Data == "div") && hasClass(n, "result__snippet")
		})

		result := SearchResult{
			Title:  collapseText(link),
			URL:    href,
			Source: hostOf(href),
		}
		if snippet != nil {
			result.Snippet = collapseText(snippet)
		}
		results = append(results, result)
	}
	return results, nil
}

// hostOf returns the hostname portion of a URL, or "" when it cannot be parsed.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// hasClass reports whether an element node carries the given class.
func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findAll returns all element nodes under root matching the predicate,
// in document order. Matching nodes are not descended into.
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// findFirst returns the first element node under root matching the predicate.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if nodes := findAll(root, match); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// collapseText joins all text under n with single spaces, trimming each piece.
func collapseText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
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
	walk(n)
	return strings.Join(parts, " ")
}
