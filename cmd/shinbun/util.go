package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// stripHTML flattens HTML markup to plain text, collapses whitespace and
// caps the result at max characters. Summaries in feeds routinely carry
// full markup.
func stripHTML(input string, max int) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(input))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(tokenizer.Token().Data)
			b.WriteByte(' ')
		}
	}

	text := whitespaceRun.ReplaceAllString(strings.TrimSpace(b.String()), " ")
	return truncate(text, max)
}

// truncate caps a string at max runes without splitting a multibyte
// character.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// collapseSpaces normalizes internal whitespace and trims the result.
func collapseSpaces(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// formatDurationShort renders a duration as "2h15m" / "37m" for the status
// endpoint's human-friendly fields.
func formatDurationShort(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
