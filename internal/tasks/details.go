package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/services"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize is the number of ids sent per videos.list call.
const MaxBatchSize = services.MaxVideoIDs

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		chunks = append(chunks, items[i:min(i+size, len(items))])
	}
	return chunks
}

// FetchVideoDetails looks up the authoritative record for every id.
//
// Empty and repeated ids are dropped, the rest are split into batches of [MaxBatchSize] and the
// batches are fetched concurrently. The result is keyed by each record's own id and only holds
// requested ids. An id the provider did not return is absent from the map.
//
// The first failed batch cancels the others and aborts the lookup.
func FetchVideoDetails(ctx context.Context, src services.VideoLister, ids []string) (map[string]models.Video, error) {
	keys := uniqueIDs(ids)
	if len(keys) == 0 {
		return map[string]models.Video{}, nil
	}

	chunks := Chunk(keys, MaxBatchSize)
	batches := make([][]models.Video, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			videos, err := src.ListVideos(gctx, chunk)
			if err != nil {
				return fmt.Errorf("failed to fetch video batch %d/%d: %w", i+1, len(chunks), err)
			}
			batches[i] = videos
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	requested := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		requested[k] = struct{}{}
	}

	lookup := make(map[string]models.Video, len(keys))
	for _, batch := range batches {
		for _, v := range batch {
			if _, ok := requested[v.ID]; ok {
				lookup[v.ID] = v
			}
		}
	}
	return lookup, nil
}

// uniqueIDs drops empty and repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
