package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScrapeAdapter(t *testing.T, profile string) *ScrapeAdapter {
	t.Helper()
	adapter, err := NewScrapeAdapter(Source{ID: "test", Name: "Test", URL: "https://example.com", Profile: profile}, nil, "", DefaultUserAgent)
	require.NoError(t, err)
	return adapter
}

func TestNewScrapeAdapterUnknownProfile(t *testing.T) {
	_, err := NewScrapeAdapter(Source{ID: "x", Profile: "nope"}, nil, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scrape profile")
}

func TestScanMarkdownHeadingLinks(t *testing.T) {
	adapter := newTestScrapeAdapter(t, "every")

	markdown := `
Some intro text.

[### Why context engineering beats prompt engineering](https://every.to/context-window/context-engineering)
[### The slow death of the standalone writing app](https://every.to/source-code/standalone-writing-app)
[### What happens when models manage their own memory](https://every.to/p/models-manage-memory)

[Columnists](https://every.to/columnists)
![an image](https://every.to/p/looks-like-article)
`

	articles := adapter.scanMarkdown(markdown)
	require.Len(t, articles, 3)
	assert.Equal(t, "Why context engineering beats prompt engineering", articles[0].Title)
	assert.Equal(t, "https://every.to/context-window/context-engineering", articles[0].URL)
	assert.Equal(t, "Context Window", articles[0].Category)
	assert.Equal(t, "Source Code", articles[1].Category)
	assert.Equal(t, "Article", articles[2].Category)
}

func TestScanMarkdownRejectsNavigationChrome(t *testing.T) {
	adapter := newTestScrapeAdapter(t, "every")

	markdown := `
[Subscribe](https://every.to/p/become-a-member)
[Sign in](https://every.to/p/account-login)
[Help center](https://every.to/p/help-pages)
[### A real article about the economics of inference](https://every.to/p/economics-of-inference)
`

	articles := adapter.scanMarkdown(markdown)
	require.Len(t, articles, 1)
	assert.Equal(t, "A real article about the economics of inference", articles[0].Title)
}

func TestScanMarkdownRejectsShortTitles(t *testing.T) {
	adapter := newTestScrapeAdapter(t, "every")

	articles := adapter.scanMarkdown(`[Read now](https://every.to/p/some-article)`)
	assert.Empty(t, articles)
}

func TestScanMarkdownDedupesLinks(t *testing.T) {
	adapter := newTestScrapeAdapter(t, "every")

	markdown := `
[### A sufficiently long and interesting headline](https://every.to/p/duplicated-article)
[### A sufficiently long and interesting headline](https://every.to/p/duplicated-article)
`
	assert.Len(t, adapter.scanMarkdown(markdown), 1)
}

func TestAcceptLinkGoogleBlogDenylists(t *testing.T) {
	adapter := newTestScrapeAdapter(t, "google-blog")
	seen := make(map[string]bool)

	// Section index pages are chrome, not articles.
	_, ok := adapter.acceptLink("Some long enough section title", "https://blog.google/technology/google-deepmind/", seen)
	assert.False(t, ok)

	_, ok = adapter.acceptLink("An author page with a long name", "https://blog.google/authors/someone-somewhere", seen)
	assert.False(t, ok)

	article, ok := adapter.acceptLink("Gemini gets a long-context upgrade for developers", "https://blog.google/technology/developers/gemini-long-context", seen)
	require.True(t, ok)
	assert.Equal(t, "Google", article.Category)
	// Scraped pages expose no per-article date; fetch time stands in.
	_, parsed := parseFeedDate(article.Date)
	assert.True(t, parsed)
}

func TestCategoryForGoogleBlog(t *testing.T) {
	adapter := newTestScrapeAdapter(t, "google-blog")

	assert.Equal(t, "Products", adapter.categoryFor("https://blog.google/products/search/some-article"))
	assert.Equal(t, "Google", adapter.categoryFor("https://blog.google/technology/developers/article"))
}
