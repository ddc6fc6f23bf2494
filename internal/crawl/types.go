// Package crawl implements keyword search and page preview crawling.
package crawl

// PageContent holds the fetched preview of a single result page.
type PageContent struct {
	// URL is the page that was fetched.
	URL string `json:"url"`
	// Status is the HTTP status code, or 0 when the request failed.
	Status int `json:"status"`
	// TextPreview is the extracted page text, capped at the preview limit.
	TextPreview string `json:"text_preview"`
}

// SearchResult is a single entry parsed from the search endpoint.
type SearchResult struct {
	// Title is the result link text.
	Title string `json:"title"`
	// URL is the result target.
	URL string `json:"url"`
	// Snippet is the short description shown under the link.
	Snippet string `json:"snippet"`
	// Source is the hostname of the result URL.
	Source string `json:"source"`
	// Page holds the fetched preview when the result was visited.
	Page *PageContent `json:"page"`
}
