package crawl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result__body links_main">
    <h2><a class="result__a" href="https://example.com/go">The Go Programming Language</a></h2>
    <a class="result__snippet" href="https://example.com/go">Build <b>fast</b>, reliable software.</a>
  </div>
  <div class="result__body">
    <h2><a class="result__a" href="https://pkg.go.dev/">
       Go Packages
    </a></h2>
    <div class="result__snippet">Package index.</div>
  </div>
  <div class="result__body">
    <h2><a class="result__a">no href here</a></h2>
  </div>
  <div class="result__body">
    <span>no link at all</span>
  </div>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	results, err := parseResults(strings.NewReader(searchPage))
	require.NoError(t, err)
	require.Len(t, results, 2, "entries without a link or href are skipped")

	assert.Equal(t, SearchResult{
		Title:   "The Go Programming Language",
		URL:     "https://example.com/go",
		Snippet: "Build fast , reliable software.",
		Source:  "example.com",
	}, results[0])

	assert.Equal(t, "Go Packages", results[1].Title)
	assert.Equal(t, "pkg.go.dev", results[1].Source)
	assert.Equal(t, "Package index.", results[1].Snippet)
}

func TestParseResultsEmptyPage(t *testing.T) {
	results, err := parseResults(strings.NewReader("<html><body><p>no results</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.com", hostOf("https://example.com/a/b?q=1"))
	assert.Equal(t, "example.com:8080", hostOf("http://example.com:8080/"))
	assert.Equal(t, "", hostOf("::not a url"))
	assert.Equal(t, "", hostOf("/relative/path"))
}

func TestHasClass(t *testing.T) {
	results, err := parseResults(strings.NewReader(
		`<div class="other result__body extra"><a class="result__a" href="https://x.test/">x</a></div>`))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "x.test", results[0].Source)
}
