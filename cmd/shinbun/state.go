package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Global application state
var state = &State{
	StartupTime:  time.Now(),
	Version:      VERSION,
	SystemStatus: "initializing",
}

var stateMutex sync.Mutex

// State represents the application runtime state. It is persisted across
// restarts so the dashboard can report lifetime counters.
type State struct {
	StartupTime     time.Time `json:"startupTime"`
	ShutdownTime    time.Time `json:"shutdownTime"`
	LastRunTime     time.Time `json:"lastRunTime"`
	LastRunDuration string    `json:"lastRunDuration"`
	NextRunTime     time.Time `json:"nextRunTime"`
	RunCount        int       `json:"runCount"`
	SuccessCount    int       `json:"successCount"`
	ErrorCount      int       `json:"errorCount"`
	TotalArticles   int       `json:"totalArticles"`
	TranslatedCount int       `json:"translatedCount"`
	LastError       string    `json:"lastError"`
	LastErrorTime   time.Time `json:"lastErrorTime"`
	UptimeSeconds   int64     `json:"uptimeSeconds"`
	Version         string    `json:"version"`
	SystemStatus    string    `json:"systemStatus"`
}

func stateFilePath(cfg *Config) string {
	return filepath.Join(cfg.DataDir, StateFile)
}

// LoadState loads the application state from file, creating it with
// defaults when absent or empty.
func LoadState(cfg *Config) (*State, error) {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	path := stateFilePath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) || (err == nil && len(data) == 0) {
		if err := saveStateLocked(path); err != nil {
			return nil, err
		}
		return state, nil
	}
	if err != nil {
		return nil, err
	}

	var loaded State
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, err
	}

	// Lifetime counters survive restarts; per-process fields reset.
	state.RunCount = loaded.RunCount
	state.SuccessCount = loaded.SuccessCount
	state.ErrorCount = loaded.ErrorCount
	state.TotalArticles = loaded.TotalArticles
	state.TranslatedCount = loaded.TranslatedCount
	state.LastRunTime = loaded.LastRunTime
	state.LastRunDuration = loaded.LastRunDuration
	state.LastError = loaded.LastError
	state.LastErrorTime = loaded.LastErrorTime
	state.SystemStatus = "running"

	return state, nil
}

// SaveState persists the current state atomically.
func SaveState(cfg *Config) error {
	stateMutex.Lock()
	defer stateMutex.Unlock()
	return saveStateLocked(stateFilePath(cfg))
}

func saveStateLocked(path string) error {
	state.UptimeSeconds = int64(time.Since(state.StartupTime).Seconds())

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return err
	}
	return os.Rename(tempFile, path)
}

// RecordRun records the outcome of one pipeline run.
func RecordRun(started time.Time, articles, translated, failedSources int, runErr error) {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	state.RunCount++
	state.LastRunTime = started
	state.LastRunDuration = time.Since(started).Round(time.Second).String()
	state.TotalArticles = articles
	state.TranslatedCount += translated

	if runErr != nil || failedSources > 0 {
		state.ErrorCount++
		if runErr != nil {
			state.LastError = runErr.Error()
		} else {
			state.LastError = "one or more sources failed"
		}
		state.LastErrorTime = time.Now()
	} else {
		state.SuccessCount++
	}
}

// UpdateNextRunTime records when the scheduler will fire next.
func UpdateNextRunTime(next time.Time) {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	state.NextRunTime = next
}

// RecordError records a non-run error in the state.
func RecordError(errorMsg string) {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	state.LastError = errorMsg
	state.LastErrorTime = time.Now()
	state.ErrorCount++
}

// SetSystemStatus updates the reported status string.
func SetSystemStatus(status string) {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	state.SystemStatus = status
}

// GetSystemStatus gets a detailed system status snapshot for the API.
func GetSystemStatus() map[string]interface{} {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	return map[string]interface{}{
		"status":           state.SystemStatus,
		"version":          state.Version,
		"uptime_seconds":   int64(time.Since(state.StartupTime).Seconds()),
		"run_count":        state.RunCount,
		"success_count":    state.SuccessCount,
		"error_count":      state.ErrorCount,
		"total_articles":   state.TotalArticles,
		"translated_count": state.TranslatedCount,
		"startup_time":     state.StartupTime,
		"last_run":         state.LastRunTime,
		"last_duration":    state.LastRunDuration,
		"next_run":         state.NextRunTime,
		"last_error":       state.LastError,
	}
}
