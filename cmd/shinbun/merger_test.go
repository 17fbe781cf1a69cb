package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSnapshotsStampsSourceFields(t *testing.T) {
	snapshots := []SourceSnapshot{
		successSnapshot(Source{ID: "openai", Name: "OpenAI Blog"}, []Article{
			{Title: "a", Date: "2026-02-05T00:00:00Z", URL: "https://openai.com/a"},
		}),
	}

	unified := MergeSnapshots(snapshots, 1)
	require.Len(t, unified.Articles, 1)
	assert.Equal(t, "OpenAI Blog", unified.Articles[0].Source)
	assert.Equal(t, "openai", unified.Articles[0].SourceID)
	assert.Equal(t, 1, unified.TotalCount)
	assert.Empty(t, unified.Errors)
}

func TestMergeSnapshotsGlobalOrdering(t *testing.T) {
	snapshots := []SourceSnapshot{
		successSnapshot(Source{ID: "a", Name: "A"}, []Article{
			{Title: "a-old", Date: "2026-02-01T00:00:00Z", URL: "u1"},
			{Title: "a-new", Date: "2026-02-09T00:00:00Z", URL: "u2"},
		}),
		successSnapshot(Source{ID: "b", Name: "B"}, []Article{
			{Title: "b-mid", Date: "2026-02-05T00:00:00Z", URL: "u3"},
			{Title: "b-undated", Date: "someday", URL: "u4"},
		}),
	}

	unified := MergeSnapshots(snapshots, 2)
	require.Len(t, unified.Articles, 4)
	assert.Equal(t, "a-new", unified.Articles[0].Title)
	assert.Equal(t, "b-mid", unified.Articles[1].Title)
	assert.Equal(t, "a-old", unified.Articles[2].Title)
	assert.Equal(t, "b-undated", unified.Articles[3].Title)
}

func TestMergeSnapshotsPartialFailure(t *testing.T) {
	snapshots := []SourceSnapshot{
		successSnapshot(Source{ID: "openai", Name: "OpenAI Blog"}, []Article{
			{Title: "a", Date: "2026-02-05T00:00:00Z", URL: "u1"},
		}),
		errorSnapshot(Source{ID: "arxiv", Name: "arXiv"}, errors.New("HTTP 503")),
	}

	unified := MergeSnapshots(snapshots, 2)
	assert.Equal(t, 1, unified.TotalCount)
	// The configured total, not the number of healthy sources.
	assert.Equal(t, 2, unified.SourcesCount)
	require.Len(t, unified.Errors, 1)
	assert.Equal(t, "arxiv: HTTP 503", unified.Errors[0])
}

func TestMergeSnapshotsAllFailedStillStructured(t *testing.T) {
	snapshots := []SourceSnapshot{
		errorSnapshot(Source{ID: "a", Name: "A"}, errors.New("down")),
		errorSnapshot(Source{ID: "b", Name: "B"}, errors.New("down")),
	}

	unified := MergeSnapshots(snapshots, 2)
	assert.NotNil(t, unified.Articles)
	assert.Empty(t, unified.Articles)
	assert.Len(t, unified.Errors, 2)
	assert.Equal(t, 0, unified.TotalCount)
}
