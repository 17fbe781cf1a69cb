package main

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// feedDateLayouts are tried in order after RFC3339. Feeds in the wild mix
// RFC 1123, RFC 822, two-digit years and missing zones.
var feedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// rfc2822Loose matches "Mon, 09 Feb 2026 11:00:00 GMT" style strings that
// slip past the stock layouts (odd whitespace, trailing junk).
var rfc2822Loose = regexp.MustCompile(`^\w{3},\s+(\d{1,2})\s+(\w{3})\s+(\d{4})\s+(\d{2}):(\d{2}):(\d{2})`)

var monthsByName = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// parseFeedDate turns an arbitrary source date string into an instant.
// It never fails hard: a string matching no known format returns ok=false,
// and the zero time acts as the "unknown date" sentinel that sorts after
// every dated article.
func parseFeedDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	if m := rfc2822Loose.FindStringSubmatch(s); m != nil {
		month, ok := monthsByName[m[2]]
		if ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			hour, _ := strconv.Atoi(m[4])
			minute, _ := strconv.Atoi(m[5])
			second, _ := strconv.Atoi(m[6])
			return time.Date(year, month, day, hour, minute, second, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

// formatArticleDate renders a parsed date for snapshot output. Unparseable
// dates keep the raw source string so nothing is silently lost.
func formatArticleDate(raw string) string {
	if t, ok := parseFeedDate(raw); ok {
		return t.Format(time.RFC1123)
	}
	return strings.TrimSpace(raw)
}
