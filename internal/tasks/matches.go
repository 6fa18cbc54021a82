package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/services"
)

// DefaultSearchConcurrency is the number of searches kept in flight when none is configured.
const DefaultSearchConcurrency = 3

// ResolveMatches searches every query with at most concurrency searches in flight.
//
// It returns one [models.MatchRecord] per query in input order. A failed search is recorded on its
// own entry and never affects the others. Identical queries are each searched.
func ResolveMatches(ctx context.Context, searcher services.Searcher, queries []string, concurrency int) []models.MatchRecord {
	return resolveMatches(ctx, searcher, queries, concurrency, nil)
}

func resolveMatches(ctx context.Context, searcher services.Searcher, queries []string, concurrency int, done func(models.MatchRecord)) []models.MatchRecord {
	return MapConcurrent(ctx, queries, concurrency, func(ctx context.Context, q string, _ int) models.MatchRecord {
		rec := resolveOne(ctx, searcher, q)
		if done != nil {
			done(rec)
		}
		return rec
	})
}

func resolveOne(ctx context.Context, searcher services.Searcher, query string) (rec models.MatchRecord) {
	rec.Query = query
	defer func() {
		if r := recover(); r != nil {
			rec = models.MatchRecord{Query: query, Error: fmt.Sprintf("search panicked: %v", r)}
		}
	}()

	result, err := searcher.SearchOne(ctx, query)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}

	rec.OK = true
	rec.Result = result
	return rec
}

// IndexMatches keys records by query text. When texts repeat, the later record wins.
func IndexMatches(records []models.MatchRecord) map[string]models.Match {
	index := make(map[string]models.Match, len(records))
	for _, r := range records {
		index[r.Query] = models.Match{OK: r.OK, Result: r.Result}
	}
	return index
}

// MergeMatches returns a copy of recs with each Match set from index by exact query text.
//
// Recommendations whose query failed, found nothing, or is not in index get a nil Match.
func MergeMatches(recs []models.Recommendation, index map[string]models.Match) []models.Recommendation {
	out := make([]models.Recommendation, len(recs))
	for i, rec := range recs {
		rec.Match = nil
		if m, ok := index[rec.Query]; ok && m.OK {
			rec.Match = m.Result
		}
		out[i] = rec
	}
	return out
}

// CountMatched returns how many recommendations carry a match.
func CountMatched(recs []models.Recommendation) int {
	n := 0
	for _, r := range recs {
		if r.Match != nil {
			n++
		}
	}
	return n
}
