package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// SourceAdapter is the common contract every source kind satisfies. Fetch
// always settles with a snapshot; failures are folded into an error
// snapshot rather than surfaced as a Go error, so one bad source can never
// abort the run.
type SourceAdapter interface {
	SourceConfig() Source
	Fetch(ctx context.Context) SourceSnapshot
}

// apiAdapterBuilders maps the api name in sources.yml to a constructor.
// Sources are config, adapters a table; nothing branches on source ids
// inline.
var apiAdapterBuilders = map[string]func(src Source, client *http.Client, cfg *Config) SourceAdapter{
	"moltbook": func(src Source, client *http.Client, cfg *Config) SourceAdapter {
		return NewMoltbookAdapter(src, client, cfg.MoltbookAPI, cfg.MoltbookKey)
	},
	"openclaw": func(src Source, client *http.Client, cfg *Config) SourceAdapter {
		return NewOpenClawAdapter(src, client, cfg.OpenClawAPI, cfg.GitHubToken)
	},
}

// BuildAdapters constructs one adapter per enabled source from the
// registry.
func BuildAdapters(sources []Source, cfg *Config) ([]SourceAdapter, error) {
	client := &http.Client{Timeout: FetchTimeout}

	adapters := make([]SourceAdapter, 0, len(sources))
	for _, src := range sources {
		switch src.Kind {
		case "rss":
			adapters = append(adapters, NewRSSAdapter(src, client, cfg.UserAgent))
		case "html":
			adapter, err := NewScrapeAdapter(src, client, cfg.ReaderProxy, cfg.UserAgent)
			if err != nil {
				return nil, err
			}
			adapters = append(adapters, adapter)
		case "api":
			build, ok := apiAdapterBuilders[src.API]
			if !ok {
				return nil, NewParseError(ErrParseSchema, fmt.Sprintf("no adapter registered for api %q", src.API), nil)
			}
			adapters = append(adapters, build(src, client, cfg))
		}
	}

	return adapters, nil
}

// FetchAll fans out every adapter concurrently and waits for all of them
// to settle. Downstream merging depends on the complete set, so this is an
// all-settled barrier, not an incremental pipeline. Results come back
// ordered by source id to keep runs deterministic.
func FetchAll(ctx context.Context, adapters []SourceAdapter) []SourceSnapshot {
	results := make(chan SourceSnapshot, len(adapters))
	var wg sync.WaitGroup

	for _, adapter := range adapters {
		wg.Add(1)
		go func(a SourceAdapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					src := a.SourceConfig()
					Logger().Error("panic fetching %s: %v", src.ID, r)
					results <- errorSnapshot(src, fmt.Errorf("panic: %v", r))
				}
			}()
			results <- a.Fetch(ctx)
		}(adapter)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	snapshots := make([]SourceSnapshot, 0, len(adapters))
	for snap := range results {
		snapshots = append(snapshots, snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].SourceID < snapshots[j].SourceID
	})

	return snapshots
}
