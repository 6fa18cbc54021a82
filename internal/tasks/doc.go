// Package tasks enriches YouTube playlists and resolves recommendation queries, reporting progress in real time.
//
// # Pipeline
//
// Enrichment runs three stages:
//
//  1. [FetchPlaylistItems] : cursor pagination up to a target count
//     - Pages are sequential because each token depends on the previous page
//     - The result is truncated to the target and the last token is returned for resumption
//
//  2. [FetchVideoDetails] : batched authoritative lookup
//     - Ids are split into batches of [MaxBatchSize] fetched concurrently
//     - Ids the provider omits are simply absent from the lookup
//
//  3. [JoinDetails] : order-preserving join
//     - One output entry per snapshot item, flagged missing when it has no record
//
// Query resolution is independent of enrichment:
//
//   - [MapConcurrent] : generic worker pool with at most K calls in flight, results in input order
//   - [ResolveMatches] : one search per query, failures captured per entry
//   - [IndexMatches] and [MergeMatches] : query-keyed lookup merged onto recommendations
//
// # Progress Reporting
//
// All [PlaylistEngine] operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
//
// # Failure Policy
//
// Page and batch failures abort the enclosing operation and no partial result is returned.
// Search failures never abort a batch; they are recorded on the failing [models.MatchRecord].
package tasks
