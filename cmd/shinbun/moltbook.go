package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MoltbookAdapter pulls hot community posts from the Moltbook API.
//
// Failure policy is deliberately degraded, not fatal: a rate-limit response
// or any other failure substitutes a fixed fallback dataset so the
// dashboard card never renders empty. This is a product decision carried
// over intentionally; do not "fix" it into an error.
type MoltbookAdapter struct {
	source  Source
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewMoltbookAdapter creates the Moltbook posts adapter.
func NewMoltbookAdapter(src Source, client *http.Client, baseURL, apiKey string) *MoltbookAdapter {
	return &MoltbookAdapter{
		source:  src,
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// SourceConfig returns the adapter's configured source.
func (a *MoltbookAdapter) SourceConfig() Source {
	return a.source
}

// moltbookResponse is the validated upstream schema. Malformed responses
// fail closed instead of leaking nils into the pipeline.
type moltbookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Posts   []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Content string `json:"content"`
		Author  *struct {
			Name string `json:"name"`
		} `json:"author"`
		Submolt *struct {
			Name string `json:"name"`
		} `json:"submolt"`
		Upvotes      int    `json:"upvotes"`
		Downvotes    int    `json:"downvotes"`
		CommentCount int    `json:"comment_count"`
		CreatedAt    string `json:"created_at"`
	} `json:"posts"`
}

// Fetch retrieves hot posts and emits them as a source snapshot.
func (a *MoltbookAdapter) Fetch(ctx context.Context) SourceSnapshot {
	posts, err := a.FetchHotPosts(ctx)
	if err != nil {
		// Degraded availability: never an error snapshot.
		Logger().Warning("moltbook: %v, using fallback dataset", err)
		posts = moltbookFallbackPosts()
	}

	articles := make([]Article, 0, len(posts))
	for _, post := range posts {
		articles = append(articles, Article{
			Title:    collapseSpaces(post.Title),
			Date:     formatArticleDate(post.CreatedAt),
			Summary:  stripHTML(post.Content, SummaryMaxLen),
			URL:      fmt.Sprintf("https://www.moltbook.com/post/%s", post.ID),
			Category: post.Submolt,
		})
	}

	articles = dedupeByURL(articles)
	articles = rankArticles(articles, MaxArticlesPerSource)

	return successSnapshot(a.source, articles)
}

// FetchHotPosts performs the authenticated GET and maps the response
// field-by-field into the normalized shape, defaulting absent numerics to
// zero and flattening nested author/submolt objects.
func (a *MoltbookAdapter) FetchHotPosts(ctx context.Context) ([]MoltbookPost, error) {
	url := fmt.Sprintf("%s/posts?sort=hot&limit=10", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewFetchError(ErrFetchHTTP, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, NewFetchError(ErrFetchHTTP, "moltbook request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewFetchError(ErrFetchHTTP, fmt.Sprintf("moltbook returned HTTP %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedBodyBytes))
	if err != nil {
		return nil, NewFetchError(ErrFetchHTTP, "failed to read moltbook response", err)
	}

	var mr moltbookResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, NewParseError(ErrParseSchema, "invalid moltbook response", err)
	}
	if !mr.Success {
		msg := mr.Error
		if msg == "" {
			msg = "moltbook reported failure"
		}
		return nil, NewFetchError(ErrFetchHTTP, msg, nil)
	}

	posts := make([]MoltbookPost, 0, len(mr.Posts))
	for _, p := range mr.Posts {
		author := "Unknown"
		if p.Author != nil && p.Author.Name != "" {
			author = p.Author.Name
		}
		submolt := "general"
		if p.Submolt != nil && p.Submolt.Name != "" {
			submolt = p.Submolt.Name
		}
		posts = append(posts, MoltbookPost{
			ID:           p.ID,
			Title:        p.Title,
			Content:      p.Content,
			Author:       author,
			Submolt:      submolt,
			Upvotes:      p.Upvotes,
			Downvotes:    p.Downvotes,
			CommentCount: p.CommentCount,
			CreatedAt:    p.CreatedAt,
		})
	}

	return posts, nil
}

// moltbookFallbackPosts is the fixed dataset substituted when the API is
// rate-limited or down.
func moltbookFallbackPosts() []MoltbookPost {
	now := time.Now().UTC()
	return []MoltbookPost{
		{
			ID:        "fallback-1",
			Title:     "What agents are you all running day to day?",
			Content:   "Curious what the community has settled on for daily-driver agent setups.",
			Author:    "Unknown",
			Submolt:   "general",
			CreatedAt: now.Format(time.RFC3339),
		},
		{
			ID:        "fallback-2",
			Title:     "Benchmarks are saturating, what should we measure next?",
			Content:   "Long-horizon tasks seem like the obvious candidate but scoring them is hard.",
			Author:    "Unknown",
			Submolt:   "general",
			CreatedAt: now.Add(-24 * time.Hour).Format(time.RFC3339),
		},
		{
			ID:        "fallback-3",
			Title:     "Notes from running a local model cluster at home",
			Content:   "Power draw, cooling, and the software stack that finally worked.",
			Author:    "Unknown",
			Submolt:   "homelab",
			CreatedAt: now.Add(-48 * time.Hour).Format(time.RFC3339),
		},
	}
}
