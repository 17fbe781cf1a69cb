package main

import (
	"strings"
	"time"
)

// Article is the normalized unit every adapter produces. Date keeps the
// source's encoding (reformatted to UTC when it parsed) so snapshots stay
// byte-comparable across runs; sorting always goes through parseFeedDate.
type Article struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
	Category string `json:"category,omitempty"`

	// Stamped by the merger, empty in per-source snapshots
	Source   string `json:"source,omitempty"`
	SourceID string `json:"source_name,omitempty"`
}

// SourceSnapshot is the per-source output document, one file per source,
// fully overwritten each run.
type SourceSnapshot struct {
	SourceID  string    `json:"source_name"`
	Source    string    `json:"source"`
	SourceURL string    `json:"source_url"`
	FetchTime time.Time `json:"fetch_time"`
	Articles  []Article `json:"articles"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// OK reports whether the snapshot represents a successful fetch.
func (s *SourceSnapshot) OK() bool {
	return s.Status == StatusSuccess
}

// UnifiedSnapshot is the cross-source merge result.
type UnifiedSnapshot struct {
	FetchTime    time.Time `json:"fetch_time"`
	TotalCount   int       `json:"total_count"`
	SourcesCount int       `json:"sources_count"`
	Errors       []string  `json:"errors"`
	Articles     []Article `json:"articles"`
}

// TranslationCache is the persistent title-translation map. Keys are
// deterministic per (source, title) so reruns never re-translate.
type TranslationCache struct {
	FetchTime    time.Time         `json:"fetch_time"`
	Translations map[string]string `json:"translations"`
}

// NewTranslationCache returns an empty cache ready for use.
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		FetchTime:    time.Now().UTC(),
		Translations: make(map[string]string),
	}
}

// SourceMeta records per-source freshness info in the meta document.
type SourceMeta struct {
	LastUpdated  time.Time `json:"lastUpdated"`
	ArticleCount int       `json:"articleCount"`
}

// Meta is the staleness record consumed by the status and update endpoints.
type Meta struct {
	LastUpdated time.Time             `json:"lastUpdated"`
	Sources     map[string]SourceMeta `json:"sources"`
}

// TotalArticles sums the per-source counts.
func (m *Meta) TotalArticles() int {
	total := 0
	for _, s := range m.Sources {
		total += s.ArticleCount
	}
	return total
}

// MoltbookPost is a community post from the Moltbook API.
type MoltbookPost struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Author       string `json:"author"`
	Submolt      string `json:"submolt"`
	Upvotes      int    `json:"upvotes"`
	Downvotes    int    `json:"downvotes"`
	CommentCount int    `json:"commentCount"`
	CreatedAt    string `json:"createdAt"`
}

// OpenClawRelease is a release entry from the OpenClaw GitHub repository.
type OpenClawRelease struct {
	ID            int64  `json:"id"`
	TagName       string `json:"tagName"`
	Name          string `json:"name"`
	Body          string `json:"body"`
	PublishedAt   string `json:"publishedAt"`
	Author        string `json:"author"`
	HTMLURL       string `json:"htmlUrl"`
	DownloadCount int    `json:"downloadCount"`
}

// errorSnapshot builds the snapshot recorded when a source fails.
func errorSnapshot(src Source, err error) SourceSnapshot {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return SourceSnapshot{
		SourceID:  src.ID,
		Source:    src.Name,
		SourceURL: src.URL,
		FetchTime: time.Now().UTC(),
		Articles:  []Article{},
		Status:    StatusError,
		Error:     msg,
	}
}

// successSnapshot builds the snapshot recorded when a source succeeds.
func successSnapshot(src Source, articles []Article) SourceSnapshot {
	if articles == nil {
		articles = []Article{}
	}
	return SourceSnapshot{
		SourceID:  src.ID,
		Source:    src.Name,
		SourceURL: src.URL,
		FetchTime: time.Now().UTC(),
		Articles:  articles,
		Status:    StatusSuccess,
	}
}

// snapshotFileName returns the per-source document name for a source id.
func snapshotFileName(sourceID string) string {
	return strings.TrimSpace(sourceID) + "-latest.json"
}
