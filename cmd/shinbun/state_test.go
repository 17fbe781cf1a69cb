package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRunCounters(t *testing.T) {
	beforeRuns := state.RunCount
	beforeSuccess := state.SuccessCount

	RecordRun(time.Now().Add(-3*time.Second), 12, 4, 0, nil)

	assert.Equal(t, beforeRuns+1, state.RunCount)
	assert.Equal(t, beforeSuccess+1, state.SuccessCount)
	assert.Equal(t, 12, state.TotalArticles)
	assert.NotEmpty(t, state.LastRunDuration)
}

func TestRecordRunFailedSources(t *testing.T) {
	beforeErrors := state.ErrorCount

	RecordRun(time.Now(), 6, 0, 2, nil)

	assert.Equal(t, beforeErrors+1, state.ErrorCount)
	assert.Equal(t, "one or more sources failed", state.LastError)
	assert.False(t, state.LastErrorTime.IsZero())
}

func TestStatePersistsAcrossLoads(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir()}

	RecordRun(time.Now(), 3, 1, 0, nil)
	require.NoError(t, SaveState(cfg))

	savedRuns := state.RunCount

	loaded, err := LoadState(cfg)
	require.NoError(t, err)
	assert.Equal(t, savedRuns, loaded.RunCount)
	assert.Equal(t, "running", loaded.SystemStatus)
}

func TestGetSystemStatusShape(t *testing.T) {
	status := GetSystemStatus()

	assert.Equal(t, VERSION, status["version"])
	assert.Contains(t, status, "run_count")
	assert.Contains(t, status, "uptime_seconds")
}
