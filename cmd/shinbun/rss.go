package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSAdapter fetches and normalizes one RSS 2.0 or Atom feed.
type RSSAdapter struct {
	source Source
	client *http.Client
	parser *gofeed.Parser
	ua     string
	max    int
}

// NewRSSAdapter creates an adapter for a feed source.
func NewRSSAdapter(src Source, client *http.Client, userAgent string) *RSSAdapter {
	return &RSSAdapter{
		source: src,
		client: client,
		parser: gofeed.NewParser(),
		ua:     userAgent,
		max:    MaxArticlesPerSource,
	}
}

// SourceConfig returns the adapter's configured source.
func (a *RSSAdapter) SourceConfig() Source {
	return a.source
}

// Fetch retrieves the feed and emits the source's snapshot. All failures
// are folded into an error snapshot; the caller decides persistence.
func (a *RSSAdapter) Fetch(ctx context.Context) SourceSnapshot {
	body, err := fetchWithRetry(ctx, a.client, a.source.URL, a.ua)
	if err != nil {
		return errorSnapshot(a.source, err)
	}

	feed, err := a.parser.ParseString(string(body))
	if err != nil {
		return errorSnapshot(a.source, NewParseError(ErrParseFeed, "failed to parse feed", err))
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		articles = append(articles, Article{
			Title:    collapseSpaces(item.Title),
			Date:     formatArticleDate(itemDate(item)),
			Summary:  stripHTML(itemDescription(item), SummaryMaxLen),
			URL:      item.Link,
			Category: itemCategory(item, a.source.Category),
		})
	}

	articles = dedupeByURL(articles)
	articles = rankArticles(articles, a.max)

	return successSnapshot(a.source, articles)
}

func itemDate(item *gofeed.Item) string {
	if item.Published != "" {
		return item.Published
	}
	return item.Updated
}

func itemDescription(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

func itemCategory(item *gofeed.Item, fallback string) string {
	if len(item.Categories) > 0 && item.Categories[0] != "" {
		return item.Categories[0]
	}
	return fallback
}

// fetchWithRetry performs a GET with a browser-like User-Agent and retries
// 403 responses with increasing backoff. Several feeds block default
// client strings; the retry is anti-bot mitigation, not a correctness
// guarantee.
func fetchWithRetry(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= MaxForbiddenRetry; attempt++ {
		if attempt > 0 {
			delay := ForbiddenRetryBase * time.Duration(attempt)
			Logger().Debug("403 from %s, retry %d after %s", url, attempt, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, NewFetchError(ErrFetchTimeout, "request cancelled", ctx.Err())
			}
		}

		body, status, err := doGet(ctx, client, url, userAgent)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusForbidden:
			lastErr = NewFetchError(ErrFetchForbidden, fmt.Sprintf("HTTP 403 from %s", url), nil)
			continue
		default:
			return nil, NewFetchError(ErrFetchHTTP, fmt.Sprintf("HTTP %d from %s", status, url), nil)
		}
	}

	return nil, lastErr
}

func doGet(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, NewFetchError(ErrFetchHTTP, "failed to create request", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html, */*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, NewFetchError(ErrFetchTimeout, "request timed out", err)
		}
		return nil, 0, NewFetchError(ErrFetchHTTP, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedBodyBytes))
	if err != nil {
		return nil, 0, NewFetchError(ErrFetchHTTP, "failed to read response", err)
	}

	return body, resp.StatusCode, nil
}
