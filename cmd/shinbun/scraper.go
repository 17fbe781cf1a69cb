package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// markdownLinkPatterns are tried most specific first. The first pattern
// that yields at least the desired number of article links wins for the
// source-run; if none reaches the threshold the best non-empty yield is
// kept.
var markdownLinkPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"heading", regexp.MustCompile(`^\[#{2,3}\s*(.+?)\]\((https?://[^)\s]+)\)`)},
	{"standard", regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)},
	{"broad", regexp.MustCompile(`\[([^\]]+)\]\s*\(\s*(https?://[^)\s]+)\s*\)`)},
}

// categoryRule maps a URL path fragment to a display category.
type categoryRule struct {
	needle string
	label  string
}

// scrapeProfile captures the site-specific shape of article links and the
// navigation chrome to exclude.
type scrapeProfile struct {
	articleURL      *regexp.Regexp
	denySuffixes    []string
	denySubstrings  []string
	denyTitles      []string
	minTitleLen     int
	categories      []categoryRule
	defaultCategory string
}

// scrapeProfiles is the registry of supported scraped sites, keyed by the
// profile name referenced from sources.yml.
var scrapeProfiles = map[string]scrapeProfile{
	"google-blog": {
		articleURL: regexp.MustCompile(`^https://blog\.google/[a-z0-9-]+(?:/[a-z0-9-]+)+/?$`),
		denySuffixes: []string{
			"/innovation-and-ai/", "/products/", "/platforms/", "/company-news/",
			"/safety-security/", "/models-and-research/", "/inside-google/",
			"/around-the-globe/", "/google-asia/", "/google-deepmind/",
		},
		denySubstrings: []string{"/authors/", "/rss/", ".xml", ".png", ".jpg", ".svg"},
		denyTitles: []string{
			"innovation & ai", "products & platforms", "company news",
			"safety & security", "google deepmind", "google in asia",
		},
		minTitleLen: 15,
		categories: []categoryRule{
			{"/innovation-and-ai/", "Innovation & AI"},
			{"/products/", "Products"},
			{"/company-news/", "Company"},
		},
		defaultCategory: "Google",
	},
	"every": {
		articleURL: regexp.MustCompile(`^https://every\.to/(?:source-code|context-window|on-every|podcast|playtesting|vibe-check|also-true-for-humans|p)/[^/\s]+/?$`),
		denyTitles: []string{
			"sign in", "subscribe", "home", "newsletter", "columnists", "columns",
			"podcast", "products", "events", "consulting", "store", "search",
			"about us", "jobs", "advertise", "the team", "faq", "help center",
			"popular", "newest", "oldest",
		},
		minTitleLen: MinScrapedTitleLen,
		categories: []categoryRule{
			{"/source-code/", "Source Code"},
			{"/context-window/", "Context Window"},
			{"/on-every/", "On Every"},
			{"/podcast/", "Podcast"},
			{"/playtesting/", "Playtesting"},
			{"/vibe-check/", "Vibe Check"},
			{"/also-true-for-humans/", "Also True for Humans"},
			{"/p/", "Article"},
		},
		defaultCategory: "Every",
	},
}

// ScrapeAdapter extracts article links from pages that expose no feed. It
// works on a markdown-like rendering of the page, obtained through a
// readability proxy or converted locally, with a DOM scan as the last
// resort.
type ScrapeAdapter struct {
	source    Source
	profile   scrapeProfile
	client    *http.Client
	converter *md.Converter
	limiter   *rate.Limiter
	proxy     string
	ua        string
	max       int
}

// NewScrapeAdapter creates an adapter for an html source. The profile must
// exist in the registry; LoadSources validates the reference.
func NewScrapeAdapter(src Source, client *http.Client, proxy, userAgent string) (*ScrapeAdapter, error) {
	profile, ok := scrapeProfiles[src.Profile]
	if !ok {
		return nil, NewParseError(ErrParseSchema, fmt.Sprintf("unknown scrape profile %q for source %s", src.Profile, src.ID), nil)
	}

	return &ScrapeAdapter{
		source:    src,
		profile:   profile,
		client:    client,
		converter: md.NewConverter("", true, nil),
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		proxy:     proxy,
		ua:        userAgent,
		max:       MaxArticlesPerSource,
	}, nil
}

// SourceConfig returns the adapter's configured source.
func (a *ScrapeAdapter) SourceConfig() Source {
	return a.source
}

type scrapeStrategy struct {
	name string
	run  func(ctx context.Context, pageURL string) ([]Article, error)
}

// Fetch runs the ordered strategy list over the primary URL and every
// fallback URL. The first strategy/URL combination that yields at least
// MinScrapedArticles wins; the best smaller yield is kept as a consolation
// so one good article still beats an error snapshot.
func (a *ScrapeAdapter) Fetch(ctx context.Context) SourceSnapshot {
	strategies := []scrapeStrategy{
		{"reader-proxy", a.fetchViaProxy},
		{"local-markdown", a.fetchViaConversion},
		{"dom", a.fetchViaDOM},
	}

	urls := append([]string{a.source.URL}, a.source.FallbackURLs...)

	var best []Article
	var lastErr error

	for _, strategy := range strategies {
		for _, pageURL := range urls {
			if err := a.limiter.Wait(ctx); err != nil {
				return errorSnapshot(a.source, NewFetchError(ErrFetchTimeout, "scrape cancelled", err))
			}

			articles, err := strategy.run(ctx, pageURL)
			if err != nil {
				Logger().Debug("scrape %s: strategy %s on %s failed: %v", a.source.ID, strategy.name, pageURL, err)
				lastErr = err
				continue
			}

			if len(articles) >= MinScrapedArticles {
				Logger().Info("scrape %s: strategy %s on %s yielded %d articles", a.source.ID, strategy.name, pageURL, len(articles))
				return successSnapshot(a.source, articles)
			}
			if len(articles) > len(best) {
				best = articles
			}
		}
	}

	if len(best) > 0 {
		return successSnapshot(a.source, best)
	}

	if lastErr == nil {
		lastErr = NewFetchError(ErrFetchEmpty, "no article links found", nil)
	}
	return errorSnapshot(a.source, lastErr)
}

// fetchViaProxy retrieves the page through the readability proxy, which
// returns a markdown rendering.
func (a *ScrapeAdapter) fetchViaProxy(ctx context.Context, pageURL string) ([]Article, error) {
	if a.proxy == "" {
		return nil, NewFetchError(ErrFetchHTTP, "no reader proxy configured", nil)
	}

	body, err := fetchWithRetry(ctx, a.client, a.proxy+pageURL, a.ua)
	if err != nil {
		return nil, err
	}
	return a.scanMarkdown(string(body)), nil
}

// fetchViaConversion fetches the raw page and converts it to markdown
// locally, so a proxy outage does not take the source down.
func (a *ScrapeAdapter) fetchViaConversion(ctx context.Context, pageURL string) ([]Article, error) {
	body, err := fetchWithRetry(ctx, a.client, pageURL, a.ua)
	if err != nil {
		return nil, err
	}

	markdown, err := a.converter.ConvertString(string(body))
	if err != nil {
		return nil, NewParseError(ErrParseFeed, "markdown conversion failed", err)
	}
	return a.scanMarkdown(markdown), nil
}

// fetchViaDOM scans anchors in the raw page for hrefs matching the article
// URL shape.
func (a *ScrapeAdapter) fetchViaDOM(ctx context.Context, pageURL string) ([]Article, error) {
	body, err := fetchWithRetry(ctx, a.client, pageURL, a.ua)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, NewParseError(ErrParseFeed, "failed to parse page", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, NewParseError(ErrParseFeed, "bad page url", err)
	}

	var articles []Article
	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		link := base.ResolveReference(ref).String()
		title := collapseSpaces(sel.Text())

		if article, ok := a.acceptLink(title, link, seen); ok {
			articles = append(articles, article)
		}
		return len(articles) < a.max
	})

	return articles, nil
}

// scanMarkdown runs the ordered link patterns over a markdown rendering.
func (a *ScrapeAdapter) scanMarkdown(text string) []Article {
	lines := strings.Split(text, "\n")

	var best []Article
	for _, pattern := range markdownLinkPatterns {
		articles := a.scanLines(lines, pattern.re)
		if len(articles) >= MinScrapedArticles {
			return articles
		}
		if len(articles) > len(best) {
			best = articles
		}
	}
	return best
}

func (a *ScrapeAdapter) scanLines(lines []string, re *regexp.Regexp) []Article {
	var articles []Article
	seen := make(map[string]bool)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "![") {
			continue
		}

		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		title := collapseSpaces(strings.TrimPrefix(strings.TrimSpace(m[1]), "### "))
		link := strings.TrimSpace(m[2])

		if article, ok := a.acceptLink(title, link, seen); ok {
			articles = append(articles, article)
			if len(articles) >= a.max {
				break
			}
		}
	}

	return articles
}

// acceptLink applies the profile's URL shape, denylists and title checks.
func (a *ScrapeAdapter) acceptLink(title, link string, seen map[string]bool) (Article, bool) {
	p := a.profile

	if !p.articleURL.MatchString(link) {
		return Article{}, false
	}
	for _, suffix := range p.denySuffixes {
		if strings.HasSuffix(link, suffix) {
			return Article{}, false
		}
	}
	for _, substr := range p.denySubstrings {
		if strings.Contains(link, substr) {
			return Article{}, false
		}
	}

	if seen[link] {
		return Article{}, false
	}

	if len([]rune(title)) < p.minTitleLen {
		return Article{}, false
	}
	lower := strings.ToLower(title)
	for _, deny := range p.denyTitles {
		if lower == deny || strings.Contains(lower, deny) {
			return Article{}, false
		}
	}

	seen[link] = true
	return Article{
		Title:    title,
		URL:      link,
		Date:     time.Now().UTC().Format(time.RFC1123),
		Category: a.categoryFor(link),
	}, true
}

func (a *ScrapeAdapter) categoryFor(link string) string {
	for _, rule := range a.profile.categories {
		if strings.Contains(link, rule.needle) {
			return rule.label
		}
	}
	return a.profile.defaultCategory
}
