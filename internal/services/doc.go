// Package services implements the upstream clients behind the enrichment pipeline: the YouTube Data API v3 and the Gemini recommendation model.
//
// # Endpoint Interfaces
//
// The pipeline depends on one narrow interface per endpoint so each stage can be driven by fakes:
//   - [PlaylistItemLister] : playlistItems.list, one page at a time
//   - [VideoLister] : videos.list, up to [MaxVideoIDs] ids per call
//   - [Searcher] : search.list with type=video and maxResults=1
//   - [PlaylistLister] : playlists.list for the authenticated user
//   - [Recommender] : taste profile and bucketed recommendations from titles
//
// # YouTube Implementation
//
// [YouTubeService] sends an API key as the key parameter and, when built with [YouTubeService.WithTokenSource],
// authorizes every request through an [oauth2.Transport]. Credentials are never read from globals.
//
// # Gemini Implementation
//
// [GeminiRecommender] renders an embedded prompt template, constrains the model to a JSON response schema,
// and decodes the reply into [models.RecommendationSet].
//
// # Error Handling
//
// Non-2xx responses become [shared.UpstreamError] carrying the status and raw payload; it unwraps to
// [shared.ErrAPIRequest]. Undecodable bodies wrap [shared.ErrInvalidResponse]. Bad arguments wrap
// [shared.ErrMissingArgument] or [shared.ErrInvalidArgument].
package services
