package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OpenClawAdapter pulls the latest OpenClaw releases from the GitHub API.
// Like the Moltbook adapter it degrades to a fixed dataset when the API is
// rate-limited or unreachable, since unauthenticated GitHub quota is tiny.
type OpenClawAdapter struct {
	source  Source
	client  *http.Client
	baseURL string
	token   string
}

// NewOpenClawAdapter creates the release-notes adapter.
func NewOpenClawAdapter(src Source, client *http.Client, baseURL, token string) *OpenClawAdapter {
	return &OpenClawAdapter{
		source:  src,
		client:  client,
		baseURL: baseURL,
		token:   token,
	}
}

// SourceConfig returns the adapter's configured source.
func (a *OpenClawAdapter) SourceConfig() Source {
	return a.source
}

type githubRelease struct {
	ID          int64  `json:"id"`
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
	HTMLURL     string `json:"html_url"`
	Author      *struct {
		Login string `json:"login"`
	} `json:"author"`
	Assets []struct {
		DownloadCount int `json:"download_count"`
	} `json:"assets"`
}

// Fetch retrieves releases and emits them as a source snapshot.
func (a *OpenClawAdapter) Fetch(ctx context.Context) SourceSnapshot {
	releases, err := a.FetchReleases(ctx)
	if err != nil {
		Logger().Warning("openclaw: %v, using fallback dataset", err)
		releases = openclawFallbackReleases()
	}

	articles := make([]Article, 0, len(releases))
	for _, rel := range releases {
		title := rel.Name
		if title == "" {
			title = rel.TagName
		}
		articles = append(articles, Article{
			Title:    collapseSpaces(title),
			Date:     formatArticleDate(rel.PublishedAt),
			Summary:  truncate(collapseSpaces(rel.Body), SummaryMaxLen),
			URL:      rel.HTMLURL,
			Category: "Release",
		})
	}

	articles = dedupeByURL(articles)
	articles = rankArticles(articles, MaxArticlesPerSource)

	return successSnapshot(a.source, articles)
}

// FetchReleases performs the GET and maps the response into the normalized
// release shape.
func (a *OpenClawAdapter) FetchReleases(ctx context.Context) ([]OpenClawRelease, error) {
	url := fmt.Sprintf("%s/releases?per_page=3", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewFetchError(ErrFetchHTTP, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, NewFetchError(ErrFetchHTTP, "github request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewFetchError(ErrFetchHTTP, fmt.Sprintf("github returned HTTP %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedBodyBytes))
	if err != nil {
		return nil, NewFetchError(ErrFetchHTTP, "failed to read github response", err)
	}

	var raw []githubRelease
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, NewParseError(ErrParseSchema, "invalid github response", err)
	}

	releases := make([]OpenClawRelease, 0, len(raw))
	for _, r := range raw {
		author := "Unknown"
		if r.Author != nil && r.Author.Login != "" {
			author = r.Author.Login
		}
		downloads := 0
		for _, asset := range r.Assets {
			downloads += asset.DownloadCount
		}
		releases = append(releases, OpenClawRelease{
			ID:            r.ID,
			TagName:       r.TagName,
			Name:          r.Name,
			Body:          r.Body,
			PublishedAt:   r.PublishedAt,
			Author:        author,
			HTMLURL:       r.HTMLURL,
			DownloadCount: downloads,
		})
	}

	return releases, nil
}

// openclawFallbackReleases is the fixed dataset substituted when the API
// is rate-limited or down.
func openclawFallbackReleases() []OpenClawRelease {
	return []OpenClawRelease{
		{
			ID:          1,
			TagName:     "v2026.2.6",
			Name:        "openclaw 2026.2.6",
			Body:        "Provider updates, web UI token usage dashboard, native memory support.",
			PublishedAt: "2026-02-07T02:27:43Z",
			Author:      "steipete",
			HTMLURL:     "https://github.com/openclaw/openclaw/releases/tag/v2026.2.6",
		},
		{
			ID:          2,
			TagName:     "v2026.2.5",
			Name:        "openclaw 2026.2.5",
			Body:        "Message deduplication, webhook connection mode, topic session isolation.",
			PublishedAt: "2026-02-05T10:00:00Z",
			Author:      "steipete",
			HTMLURL:     "https://github.com/openclaw/openclaw/releases/tag/v2026.2.5",
		},
		{
			ID:          3,
			TagName:     "v2026.2.4",
			Name:        "openclaw 2026.2.4",
			Body:        "Gateway canvas auth, cron scheduling fixes, hardened asset handling.",
			PublishedAt: "2026-02-03T08:00:00Z",
			Author:      "steipete",
			HTMLURL:     "https://github.com/openclaw/openclaw/releases/tag/v2026.2.4",
		},
	}
}
