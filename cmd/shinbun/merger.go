package main

import (
	"fmt"
	"sort"
	"time"
)

// MergeSnapshots builds the unified snapshot from the current run's
// per-source results. Error snapshots contribute an entry to the errors
// list but never abort the merge; completion is independent of individual
// source health. SourcesCount always reflects the configured total so a
// partial run is visible as such.
func MergeSnapshots(snapshots []SourceSnapshot, configuredSources int) UnifiedSnapshot {
	var all []Article
	var errs []string

	for _, snap := range snapshots {
		if !snap.OK() {
			errs = append(errs, fmt.Sprintf("%s: %s", snap.SourceID, snap.Error))
			continue
		}
		for _, article := range snap.Articles {
			article.Source = snap.Source
			article.SourceID = snap.SourceID
			all = append(all, article)
		}
	}

	// Global newest-first ordering across sources; articles whose date
	// never parsed go last, input order preserved among themselves.
	sort.SliceStable(all, func(i, j int) bool {
		ti, iok := parseFeedDate(all[i].Date)
		tj, jok := parseFeedDate(all[j].Date)
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ti.After(tj)
	})

	if all == nil {
		all = []Article{}
	}

	return UnifiedSnapshot{
		FetchTime:    time.Now().UTC(),
		TotalCount:   len(all),
		SourcesCount: configuredSources,
		Errors:       errs,
		Articles:     all,
	}
}
