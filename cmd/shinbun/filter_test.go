package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankArticlesNewestFirst(t *testing.T) {
	articles := []Article{
		{Title: "old", Date: "2026-02-01T00:00:00Z"},
		{Title: "newest", Date: "2026-02-09T00:00:00Z"},
		{Title: "middle", Date: "2026-02-05T00:00:00Z"},
	}

	ranked := rankArticles(articles, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "newest", ranked[0].Title)
	assert.Equal(t, "middle", ranked[1].Title)
	assert.Equal(t, "old", ranked[2].Title)

	// Input slice untouched.
	assert.Equal(t, "old", articles[0].Title)
}

func TestRankArticlesUnparsedDatesSortLast(t *testing.T) {
	articles := []Article{
		{Title: "mystery-a", Date: "who knows"},
		{Title: "dated", Date: "2026-02-05T00:00:00Z"},
		{Title: "mystery-b", Date: ""},
	}

	ranked := rankArticles(articles, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "dated", ranked[0].Title)
	// Relative order among unparseable dates is preserved.
	assert.Equal(t, "mystery-a", ranked[1].Title)
	assert.Equal(t, "mystery-b", ranked[2].Title)
}

func TestRankArticlesCap(t *testing.T) {
	var articles []Article
	for i := 0; i < 10; i++ {
		articles = append(articles, Article{Title: "a", Date: "2026-02-01T00:00:00Z"})
	}

	assert.Len(t, rankArticles(articles, MaxArticlesPerSource), MaxArticlesPerSource)
	assert.Len(t, rankArticles(articles[:2], MaxArticlesPerSource), 2)
}

func TestDedupeByURL(t *testing.T) {
	articles := []Article{
		{Title: "first", URL: "https://example.com/a"},
		{Title: "dupe", URL: "https://example.com/a"},
		{Title: "second", URL: "https://example.com/b"},
		{Title: "blank", URL: "   "},
	}

	out := dedupeByURL(articles)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "second", out[1].Title)
}
