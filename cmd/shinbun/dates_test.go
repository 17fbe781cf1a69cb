package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "rfc3339",
			raw:  "2026-02-07T02:27:43Z",
			want: time.Date(2026, 2, 7, 2, 27, 43, 0, time.UTC),
		},
		{
			name: "rfc3339 with offset",
			raw:  "2026-02-07T10:27:43+08:00",
			want: time.Date(2026, 2, 7, 2, 27, 43, 0, time.UTC),
		},
		{
			name: "rfc1123z",
			raw:  "Mon, 09 Feb 2026 11:00:00 +0000",
			want: time.Date(2026, 2, 9, 11, 0, 0, 0, time.UTC),
		},
		{
			name: "rfc1123 gmt",
			raw:  "Mon, 09 Feb 2026 11:00:00 GMT",
			want: time.Date(2026, 2, 9, 11, 0, 0, 0, time.UTC),
		},
		{
			name: "single digit day",
			raw:  "Mon, 9 Feb 2026 11:00:00 +0000",
			want: time.Date(2026, 2, 9, 11, 0, 0, 0, time.UTC),
		},
		{
			name: "date only",
			raw:  "2026-02-09",
			want: time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "space separated",
			raw:  "2026-02-09 11:30:00",
			want: time.Date(2026, 2, 9, 11, 30, 0, 0, time.UTC),
		},
		{
			name: "surrounding whitespace",
			raw:  "  2026-02-07T02:27:43Z  ",
			want: time.Date(2026, 2, 7, 2, 27, 43, 0, time.UTC),
		},
		{
			name: "loose rfc2822 with trailing junk",
			raw:  "Mon, 09 Feb 2026 11:00:00 GMT (updated)",
			want: time.Date(2026, 2, 9, 11, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseFeedDate(tt.raw)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseFeedDateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "yesterday", "not-a-date", "13/45/2026"} {
		got, ok := parseFeedDate(raw)
		assert.False(t, ok, "expected %q to fail", raw)
		assert.True(t, got.IsZero())
	}
}

func TestFormatArticleDate(t *testing.T) {
	assert.Equal(t, "Sat, 07 Feb 2026 02:27:43 UTC", formatArticleDate("2026-02-07T02:27:43Z"))

	// Unparseable input survives verbatim, trimmed.
	assert.Equal(t, "sometime soon", formatArticleDate("  sometime soon "))
}
