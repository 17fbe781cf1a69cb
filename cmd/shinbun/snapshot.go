package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store owns the on-disk snapshot namespace: per-source snapshots, the
// unified snapshot, the translation cache and the meta record. Every write
// is a whole-file overwrite through a temp file + rename, so readers never
// observe a partial document.
type Store struct {
	dir string
}

// NewStore creates the store, ensuring the data directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, NewStorageError(ErrStorageWrite, "failed to create data directory", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's data directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return NewStorageError(ErrStorageWrite, "failed to marshal "+name, err)
	}

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return NewStorageError(ErrStorageWrite, "failed to write "+name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return NewStorageError(ErrStorageWrite, "failed to replace "+name, err)
	}
	return nil
}

func (s *Store) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return NewStorageError(ErrStorageRead, "failed to read "+name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return NewStorageError(ErrStorageRead, "failed to parse "+name, err)
	}
	return nil
}

// WriteSourceSnapshot persists a per-source snapshot. An error snapshot
// does not clobber an existing successful one: the previous good articles
// stay available to readers while the failure is still reported through
// the unified snapshot and exit code. Error state is written only when no
// prior good snapshot exists, so a brand-new broken source is visible too.
func (s *Store) WriteSourceSnapshot(snap SourceSnapshot) error {
	if !snap.OK() {
		if prev, err := s.ReadSourceSnapshot(snap.SourceID); err == nil && prev.OK() && len(prev.Articles) > 0 {
			Logger().Warning("keeping last good snapshot for %s (fetch failed: %s)", snap.SourceID, snap.Error)
			return nil
		}
	}
	return s.writeJSON(snapshotFileName(snap.SourceID), snap)
}

// ReadSourceSnapshot loads one source's snapshot from disk.
func (s *Store) ReadSourceSnapshot(sourceID string) (SourceSnapshot, error) {
	var snap SourceSnapshot
	err := s.readJSON(snapshotFileName(sourceID), &snap)
	return snap, err
}

// WriteUnifiedSnapshot persists the merged snapshot.
func (s *Store) WriteUnifiedSnapshot(snap UnifiedSnapshot) error {
	return s.writeJSON(UnifiedSnapshotFile, snap)
}

// ReadUnifiedSnapshot loads the merged snapshot.
func (s *Store) ReadUnifiedSnapshot() (UnifiedSnapshot, error) {
	var snap UnifiedSnapshot
	err := s.readJSON(UnifiedSnapshotFile, &snap)
	return snap, err
}

// ReadTranslationCache loads the persistent translation cache. A missing
// or corrupt file yields an empty cache rather than an error; the cache is
// an accelerator, never a dependency.
func (s *Store) ReadTranslationCache() *TranslationCache {
	var cache TranslationCache
	if err := s.readJSON(TranslationCacheFile, &cache); err != nil {
		return NewTranslationCache()
	}
	if cache.Translations == nil {
		cache.Translations = make(map[string]string)
	}
	return &cache
}

// WriteTranslationCache persists the translation cache.
func (s *Store) WriteTranslationCache(cache *TranslationCache) error {
	cache.FetchTime = time.Now().UTC()
	return s.writeJSON(TranslationCacheFile, cache)
}

// ReadMeta loads the staleness record.
func (s *Store) ReadMeta() (Meta, error) {
	var meta Meta
	err := s.readJSON(MetaFile, &meta)
	return meta, err
}

// WriteMeta recomputes per-source article counts by reading each snapshot
// back from disk and persists the meta record. Pure with respect to disk
// state: the same snapshot files always produce the same counts.
func (s *Store) WriteMeta(sources []Source, now time.Time) (Meta, error) {
	meta := Meta{
		LastUpdated: now.UTC(),
		Sources:     make(map[string]SourceMeta, len(sources)),
	}

	for _, src := range sources {
		count := 0
		if snap, err := s.ReadSourceSnapshot(src.ID); err == nil {
			count = len(snap.Articles)
		}
		meta.Sources[src.ID] = SourceMeta{
			LastUpdated:  now.UTC(),
			ArticleCount: count,
		}
	}

	if err := s.writeJSON(MetaFile, meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// runLock guards against overlapping pipeline runs (a manual trigger
// firing mid-scheduled-run). A lock older than RunLockStaleAfter is
// treated as leftover from a crashed run and broken.
type runLock struct {
	path string
}

// AcquireRunLock takes the run lock or reports the holder.
func (s *Store) AcquireRunLock() (*runLock, error) {
	path := s.path(RunLockFile)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "pid=%d time=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			f.Close()
			return &runLock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, NewStorageError(ErrStorageLock, "failed to create run lock", err)
		}

		info, statErr := os.Stat(path)
		if statErr == nil && time.Since(info.ModTime()) > RunLockStaleAfter {
			Logger().Warning("breaking stale run lock (age %s)", time.Since(info.ModTime()).Round(time.Second))
			os.Remove(path)
			continue
		}

		holder := ""
		if data, readErr := os.ReadFile(path); readErr == nil {
			holder = strings.TrimSpace(string(data))
		}
		return nil, NewStorageError(ErrStorageLock, "another update is already running ("+holder+")", nil)
	}

	return nil, NewStorageError(ErrStorageLock, "failed to acquire run lock", nil)
}

// Release drops the run lock.
func (l *runLock) Release() {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		Logger().Warning("failed to remove run lock: %v", err)
	}
}
