// package services defines the upstream clients the enrichment pipeline depends on
//
// YouTube Data API v3, Gemini
package services

import (
	"context"

	"github.com/desertthunder/ytrec/internal/models"
)

// PlaylistItemLister fetches one page of a playlist's entries.
type PlaylistItemLister interface {
	// ListPlaylistItems returns up to pageSize entries starting at pageToken ("" for the first page).
	ListPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (*models.ListPage, error)
}

// VideoLister fetches authoritative records for a batch of video ids.
//
// Ids that are unknown, deleted, or private are omitted from the result rather than reported as errors.
type VideoLister interface {
	ListVideos(ctx context.Context, ids []string) ([]models.Video, error)
}

// Searcher resolves a free-text query to its top video hit.
type Searcher interface {
	// SearchOne returns nil with no error when the search succeeds but finds nothing.
	SearchOne(ctx context.Context, query string) (*models.SearchResult, error)
}

// PlaylistLister lists the authenticated user's playlists.
type PlaylistLister interface {
	ListPlaylists(ctx context.Context, pageToken string) (*models.PlaylistPage, error)
}

// Catalog is the full set of YouTube operations used by the pipeline.
type Catalog interface {
	PlaylistItemLister
	VideoLister
	Searcher
	PlaylistLister
}

// Recommender generates a taste profile and bucketed recommendations from a list of titles.
type Recommender interface {
	Recommend(ctx context.Context, titles []string, count int) (*models.RecommendationSet, error)
}

var (
	_ Catalog     = (*YouTubeService)(nil)
	_ Recommender = (*GeminiRecommender)(nil)
)
