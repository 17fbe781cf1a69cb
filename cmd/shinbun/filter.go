package main

import (
	"sort"
	"strings"
)

// rankArticles orders articles newest-first and keeps at most max of them.
// Articles whose date never parsed sort after every dated article, keeping
// their relative input order (stable sort). That guarantees the freshest
// verifiable content surfaces first even when some upstream dates are
// malformed.
func rankArticles(articles []Article, max int) []Article {
	ranked := make([]Article, len(articles))
	copy(ranked, articles)

	sort.SliceStable(ranked, func(i, j int) bool {
		ti, iok := parseFeedDate(ranked[i].Date)
		tj, jok := parseFeedDate(ranked[j].Date)
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ti.After(tj)
	})

	if max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}

// dedupeByURL removes repeated articles by canonical URL within one fetch
// pass. First occurrence wins. Cross-source duplicates are deliberately
// kept: each source's perspective on the same story is preserved.
func dedupeByURL(articles []Article) []Article {
	seen := make(map[string]bool, len(articles))
	out := articles[:0]
	for _, a := range articles {
		url := strings.TrimSpace(a.URL)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		out = append(out, a)
	}
	return out
}
