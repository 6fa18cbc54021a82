// Package models defines the data transfer objects shared by the upstream clients, the enrichment pipeline, and the HTTP and CLI surfaces.
//
// The package contains three groups of types:
//
// 1. Catalog records, translated from YouTube Data API responses at the service boundary
//   - [SnapshotItem] : a playlist entry as captured while paging
//   - [Video] : the authoritative record for one video id
//   - [SearchResult] : the top hit for one free-text query
//   - [PlaylistSummary] : one of the caller's playlists
//
// 2. Pipeline results
//   - [ListPage] : one page of snapshot items plus its continuation token
//   - [EnrichedItem] : a snapshot item joined with its authoritative record
//   - [MatchRecord] : the outcome of resolving a single query, success or failure
//
// 3. Recommendation records produced by the generative model
//   - [TasteProfile], [Recommendation], [RecommendationSet]
//
// Optional upstream fields are resolved to zero values when they are translated, so no
// type in this package carries open-ended JSON past the fetch layer.
package models
