package main

import (
	"context"
	"fmt"
	"time"
)

// Pipeline runs one full update cycle: fetch every configured source
// concurrently, persist per-source snapshots, merge, translate new titles,
// and rewrite the metadata document.
type Pipeline struct {
	cfg     *Config
	sources []Source
	store   *Store
}

// RunReport summarizes one pipeline run for the caller (exit code, API
// responses, dashboard events).
type RunReport struct {
	Started       time.Time `json:"started"`
	Duration      string    `json:"duration"`
	TotalArticles int       `json:"totalArticles"`
	SourcesOK     int       `json:"sourcesOk"`
	FailedSources []string  `json:"failedSources,omitempty"`
	Translated    int       `json:"translated"`
}

// Failed reports whether any source ended the run in error.
func (r *RunReport) Failed() bool {
	return len(r.FailedSources) > 0
}

// NewPipeline loads the source registry and opens the snapshot store.
func NewPipeline(cfg *Config) (*Pipeline, error) {
	sources, err := LoadSources(cfg.SourcesPath)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled sources in %s", cfg.SourcesPath)
	}

	store, err := NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	return &Pipeline{cfg: cfg, sources: sources, store: store}, nil
}

// Sources returns the loaded source registry.
func (p *Pipeline) Sources() []Source {
	return p.sources
}

// Store returns the snapshot store backing this pipeline.
func (p *Pipeline) Store() *Store {
	return p.store
}

// Run executes one update cycle. Concurrency ends at the fetch barrier;
// everything after (snapshot writes, merge, translation, meta) is strictly
// sequential. A failed source never aborts the run, it is reported in the
// returned RunReport instead.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	started := time.Now()

	lock, err := p.store.AcquireRunLock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	ctx, cancel := context.WithTimeout(ctx, PipelineTimeout)
	defer cancel()

	Logger().Info("pipeline run started: %d sources", len(p.sources))

	adapters, err := BuildAdapters(p.sources, p.cfg)
	if err != nil {
		return nil, err
	}

	snapshots := FetchAll(ctx, adapters)

	report := &RunReport{Started: started}
	for _, snap := range snapshots {
		if snap.OK() {
			report.SourcesOK++
		} else {
			report.FailedSources = append(report.FailedSources, snap.SourceID)
		}
		if err := p.store.WriteSourceSnapshot(snap); err != nil {
			Logger().Error("failed to persist snapshot for %s: %v", snap.SourceID, err)
		}
	}

	unified := MergeSnapshots(snapshots, len(p.sources))
	if err := p.store.WriteUnifiedSnapshot(unified); err != nil {
		return report, err
	}
	report.TotalArticles = unified.TotalCount

	report.Translated = p.translate(ctx, snapshots)

	if _, err := p.store.WriteMeta(p.sources, time.Now().UTC()); err != nil {
		return report, err
	}

	report.Duration = time.Since(started).Round(time.Millisecond).String()
	if report.Failed() {
		Logger().Warning("pipeline run finished in %s with failed sources: %v", report.Duration, report.FailedSources)
	} else {
		Logger().Info("pipeline run finished in %s: %d articles from %d sources", report.Duration, report.TotalArticles, report.SourcesOK)
	}

	RecordRun(started, report.TotalArticles, report.Translated, len(report.FailedSources), nil)
	if err := SaveState(p.cfg); err != nil {
		Logger().Warning("failed to persist state: %v", err)
	}

	return report, nil
}

// translate runs the title-translation step over the sources flagged for
// it. The cache is loaded once, grown in memory, and written back once.
// Translation failures never fail the run.
func (p *Pipeline) translate(ctx context.Context, snapshots []SourceSnapshot) int {
	translator := NewTranslator(p.cfg)
	if translator == nil {
		return 0
	}

	flagged := make(map[string]bool, len(p.sources))
	for _, src := range p.sources {
		if src.Translate {
			flagged[src.ID] = true
		}
	}
	if len(flagged) == 0 {
		return 0
	}

	manager := NewTranslationManager(translator, p.store.ReadTranslationCache(), p.cfg.TargetLang)

	translated := 0
	for _, snap := range snapshots {
		if !flagged[snap.SourceID] || !snap.OK() {
			continue
		}
		translated += manager.TranslateSnapshot(ctx, snap)
	}

	if translated > 0 {
		if err := p.store.WriteTranslationCache(manager.Cache()); err != nil {
			Logger().Error("failed to persist translation cache: %v", err)
		}
	}

	return translated
}

// FreshnessReport is the staleness view served by GET /api/status and
// consulted by POST /api/update.
type FreshnessReport struct {
	NeedsUpdate   bool                  `json:"needsUpdate"`
	LastUpdated   string                `json:"lastUpdated,omitempty"`
	Elapsed       string                `json:"elapsed,omitempty"`
	NextUpdateIn  string                `json:"nextUpdateIn,omitempty"`
	TotalArticles int                   `json:"totalArticles"`
	Sources       map[string]SourceMeta `json:"sources,omitempty"`
}

// CheckFreshness reads meta.json and decides whether the data is stale. A
// missing or unreadable meta means an update is needed; the caller still
// gets a structured report.
func (p *Pipeline) CheckFreshness(now time.Time) FreshnessReport {
	interval := time.Duration(p.cfg.UpdateIntervalMinutes) * time.Minute

	meta, err := p.store.ReadMeta()
	if err != nil || meta.LastUpdated.IsZero() {
		return FreshnessReport{NeedsUpdate: true}
	}

	elapsed := now.Sub(meta.LastUpdated)
	report := FreshnessReport{
		NeedsUpdate:   elapsed > interval,
		LastUpdated:   meta.LastUpdated.Format(time.RFC3339),
		Elapsed:       formatDurationShort(elapsed),
		TotalArticles: meta.TotalArticles(),
		Sources:       meta.Sources,
	}
	if !report.NeedsUpdate {
		report.NextUpdateIn = formatDurationShort(interval - elapsed)
	}
	return report
}
