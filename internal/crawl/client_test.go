package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonpo-sc/AID/internal/logging"
)

func TestNewClientValidation(t *testing.T) {
	logger := logging.NewLogger(&bytes.Buffer{}, logging.LevelInfo)

	_, err := NewClient(logger, Options{Endpoint: " ", MaxResults: 10})
	assert.Error(t, err)

	_, err = NewClient(logger, Options{Endpoint: "https://x.test/", MaxResults: 0})
	assert.Error(t, err)

	_, err = NewClient(logger, Options{Endpoint: "https://x.test/", MaxResults: 1, MaxPages: -1})
	assert.Error(t, err)

	c, err := NewClient(logger, Options{Endpoint: "https://x.test/", MaxResults: 1})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

// searchHandler serves paginated fake result pages keyed by the "s" offset form value.
func searchHandler(t *testing.T, pages map[string]string, gotUA *string, gotKeywords *[]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		*gotUA = r.Header.Get("User-Agent")
		*gotKeywords = append(*gotKeywords, r.PostFormValue("q"))

		body, ok := pages[r.PostFormValue("s")]
		if !ok {
			body = "<html><body></body></html>"
		}
		_, _ = fmt.Fprint(w, body)
	}
}

func resultBlock(url, title string) string {
	return fmt.Sprintf(`<div class="result__body"><a class="result__a" href=%q>%s</a><div class="result__snippet">snippet</div></div>`, url, title)
}

func TestSearchPaginates(t *testing.T) {
	var gotUA string
	var gotKeywords []string

	pages := map[string]string{
		"0": resultBlock("https://a.test/1", "one") + resultBlock("https://a.test/2", "two"),
		"2": resultBlock("https://a.test/3", "three") + resultBlock("https://a.test/4", "four"),
	}
	server := httptest.NewServer(searchHandler(t, pages, &gotUA, &gotKeywords))
	defer server.Close()

	logger := logging.NewLogger(&bytes.Buffer{}, logging.LevelDebug)
	c, err := NewClient(logger, Options{
		Endpoint:   server.URL,
		UserAgent:  "aid-test-agent",
		MaxResults: 3,
		Delay:      time.Millisecond,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)

	results, err := c.Search(context.Background(), "golang")
	require.NoError(t, err)
	require.Len(t, results, 3, "collection stops at max results")

	assert.Equal(t, "one", results[0].Title)
	assert.Equal(t, "three", results[2].Title)
	assert.Equal(t, "aid-test-agent", gotUA)
	assert.Equal(t, []string{"golang", "golang"}, gotKeywords)
}

func TestSearchStopsOnEmptyPage(t *testing.T) {
	var gotUA string
	var gotKeywords []string

	pages := map[string]string{
		"0": resultBlock("https://a.test/1", "only"),
	}
	server := httptest.NewServer(searchHandler(t, pages, &gotUA, &gotKeywords))
	defer server.Close()

	logger := logging.NewLogger(&bytes.Buffer{}, logging.LevelDebug)
	c, err := NewClient(logger, Options{Endpoint: server.URL, MaxResults: 10, Timeout: 5 * time.Second})
	require.NoError(t, err)

	results, err := c.Search(context.Background(), "golang")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchEmptyKeyword(t *testing.T) {
	logger := logging.NewLogger(&bytes.Buffer{}, logging.LevelInfo)
	c, err := NewClient(logger, Options{Endpoint: "https://x.test/", MaxResults: 1})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "   ")
	require.Error(t, err)
}

func TestSearchEndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	logger := logging.NewLogger(&bytes.Buffer{}, logging.LevelInfo)
	c, err := NewClient(logger, Options{Endpoint: server.URL, MaxResults: 5, Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "golang")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchPages(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body><p>page text</p><script>x()</script></body></html>")
	}))
	defer page.Close()

	logger := logging.NewLogger(&bytes.Buffer{}, logging.LevelInfo)
	c, err := NewClient(logger, Options{
		Endpoint:   "https://unused.test/",
		MaxResults: 5,
		MaxPages:   2,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)

	results := []SearchResult{
		{URL: page.URL + "/a"},
		{URL: "http://127.0.0.1:1/unreachable"},
		{URL: page.URL + "/never-fetched"},
	}
	require.NoError(t, c.FetchPages(context.Background(), results))

	require.NotNil(t, results[0].Page)
	assert.Equal(t, http.StatusOK, results[0].Page.Status)
	assert.Equal(t, "page text", results[0].Page.TextPreview)

	require.NotNil(t, results[1].Page)
	assert.Equal(t, 0, results[1].Page.Status)
	assert.Contains(t, results[1].Page.TextPreview, "Request failed:")

	assert.Nil(t, results[2].Page, "results beyond max pages are not fetched")
}

func TestSaveResults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "crawl_results.json")

	results := []SearchResult{
		{Title: "t", URL: "https://a.test/", Snippet: "s", Source: "a.test",
			Page: &PageContent{URL: "https://a.test/", Status: 200, TextPreview: "p"}},
	}
	require.NoError(t, SaveResults(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []SearchResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, results, decoded)
	assert.Contains(t, string(data), `"text_preview"`)
}

func TestSaveResultsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, SaveResults(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
