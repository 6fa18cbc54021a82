package shared

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	bracketedRe  = regexp.MustCompile(`\[(.*?)\]|\((.*?)\)`)
)

// CleanTitle strips bracketed and parenthesised noise ("[MV]", "(Official Video)") from a video title and collapses whitespace.
func CleanTitle(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = bracketedRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// PrepareTitles cleans every title, drops blanks and exact duplicates (first occurrence wins) and keeps at most limit entries.
//
// A non-positive limit keeps everything.
func PrepareTitles(raw []string, limit int) []string {
	seen := make(map[string]struct{}, len(raw))
	titles := make([]string, 0, len(raw))

	for _, r := range raw {
		t := CleanTitle(r)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		titles = append(titles, t)

		if limit > 0 && len(titles) == limit {
			break
		}
	}
	return titles
}

// NormalizeQueries trims queries, drops blanks and keeps at most limit entries.
//
// Duplicates are kept: identical queries are dispatched individually and collapse later when results are indexed.
func NormalizeQueries(raw []string, limit int) []string {
	queries := make([]string, 0, len(raw))
	for _, r := range raw {
		q := strings.TrimSpace(r)
		if q == "" {
			continue
		}
		queries = append(queries, q)
		if limit > 0 && len(queries) == limit {
			break
		}
	}
	return queries
}

// ClampInt bounds v to [lo, hi], substituting def when v is not positive.
func ClampInt(v, def, lo, hi int) int {
	if v <= 0 {
		v = def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
