package main

import "time"

// VERSION is the current application version
const VERSION = "1.3.0"

// File layout under the data directory. Every document is a whole-file
// overwrite; readers never see partial writes because writes go through a
// temp file + rename.
const (
	DefaultDataDir       = "data/ai-news"
	UnifiedSnapshotFile  = "all-sources-latest.json"
	TranslationCacheFile = "translations.json"
	MetaFile             = "meta.json"
	StateFile            = "state.json"
	RunLockFile          = "update.lock"
)

// Network and pipeline limits
const (
	FetchTimeout       = 30 * time.Second
	PipelineTimeout    = 5 * time.Minute
	MaxFeedBodyBytes   = 10 * 1024 * 1024
	MaxForbiddenRetry  = 3
	ForbiddenRetryBase = 2 * time.Second
	RunLockStaleAfter  = 10 * time.Minute
)

// Article shaping
const (
	MaxArticlesPerSource = 6
	MinScrapedArticles   = 3
	SummaryMaxLen        = 500
	MinScrapedTitleLen   = 10
)

// Translation
const (
	TranslationBatchSize  = 50
	TranslationKeyMaxLen  = 50
	DefaultTargetLanguage = "zh"
)

// DefaultUserAgent mimics a desktop browser; several feeds 403 the Go
// default client string.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Snapshot status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
