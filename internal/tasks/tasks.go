// package tasks implements the playlist enrichment and recommendation matching pipeline.
//
// The core abstraction is PlaylistEngine, which orchestrates paging, batched detail lookup,
// joining, and concurrent search resolution.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/HTTP layers.
package tasks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/services"
	"github.com/desertthunder/ytrec/internal/shared"
)

// EnrichRequest selects the playlist slice to enrich.
type EnrichRequest struct {
	PlaylistID string
	Limit      *int   // Items to collect; nil selects the configured default, non-positive collects nothing
	PageToken  string // Resume point from a previous [EnrichResult]
}

// LimitTo returns an explicit item limit for an [EnrichRequest].
func LimitTo(n int) *int {
	return &n
}

// EnrichResult is an enriched playlist slice plus the token to resume after it.
type EnrichResult struct {
	PlaylistID     string                `json:"playlistId"`
	RequestedLimit int                   `json:"requestedLimit"`
	ReturnedCount  int                   `json:"returnedCount"`
	MissingCount   int                   `json:"missingCount"`
	NextPageToken  string                `json:"nextPageToken,omitempty"`
	Items          []models.EnrichedItem `json:"items"`
}

// SearchOpts bounds a search batch. A nil MaxQueries and a zero Concurrency select the configured defaults.
//
// An explicit non-positive MaxQueries dispatches nothing.
type SearchOpts struct {
	MaxQueries  *int
	Concurrency int
}

// RecommendRequest carries raw titles and the number of recommendations wanted.
type RecommendRequest struct {
	Titles []string
	Max    int
}

// RecommendResult is the generated recommendation set with search matches merged in.
type RecommendResult struct {
	models.RecommendationSet
	TitleCount   int `json:"titleCount"`
	MatchedCount int `json:"matchedCount"`
}

// EngineOpts configures a [PlaylistEngine]. A zero Pipeline selects the defaults from the embedded config.
type EngineOpts struct {
	Pipeline shared.PipelineConfig
	Logger   *log.Logger
}

// PlaylistEngine runs the enrichment and recommendation pipeline against a catalog and a recommender.
type PlaylistEngine struct {
	catalog     services.Catalog
	recommender services.Recommender
	limits      shared.PipelineConfig
	logger      *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided services.
//
// Either service may be nil; operations that need a missing one return [shared.ErrServiceUnavailable].
func NewPlaylistEngine(catalog services.Catalog, recommender services.Recommender, opts EngineOpts) *PlaylistEngine {
	limits := opts.Pipeline
	if limits == (shared.PipelineConfig{}) {
		limits = shared.DefaultConfig().Pipeline
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &PlaylistEngine{
		catalog:     catalog,
		recommender: recommender,
		limits:      limits,
		logger:      logger,
	}
}

// WithCatalog returns a copy of the engine bound to catalog, used for per-request credentials.
func (e *PlaylistEngine) WithCatalog(catalog services.Catalog) *PlaylistEngine {
	clone := *e
	clone.catalog = catalog
	return &clone
}

// Limits returns the pipeline bounds in effect.
func (e *PlaylistEngine) Limits() shared.PipelineConfig {
	return e.limits
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Enrich pages through a playlist, fetches authoritative details for every item, and joins them in
// playlist order.
func (e *PlaylistEngine) Enrich(ctx context.Context, progress chan<- ProgressUpdate, req EnrichRequest) (*EnrichResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: YouTube service not initialized", shared.ErrServiceUnavailable)
	}

	playlistID := strings.TrimSpace(req.PlaylistID)
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlistId is required", shared.ErrMissingArgument)
	}

	limit := e.limits.DefaultLimit
	if req.Limit != nil {
		limit = max(min(*req.Limit, e.limits.MaxLimit), 0)
	}
	logger := shared.WithLogger(e.logger, "run_id", shared.GenerateID(), "playlist_id", playlistID)
	logger.Debug("enriching playlist", "limit", limit, "resume", req.PageToken != "")

	lister := &pageReporter{
		src:    e.catalog,
		target: limit,
		notify: func(u ProgressUpdate) { e.sendProgress(progress, u) },
	}
	snapshot, token, err := FetchPlaylistItems(ctx, lister, playlistID, limit, req.PageToken)
	if err != nil {
		if upstream, ok := shared.AsUpstream(err); ok && upstream.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrPlaylistNotFound, playlistID, err)
		}
		return nil, err
	}

	result := &EnrichResult{
		PlaylistID:     playlistID,
		RequestedLimit: limit,
		NextPageToken:  token,
		Items:          []models.EnrichedItem{},
	}

	details := map[string]models.Video{}
	if ids := VideoIDs(snapshot); len(ids) > 0 {
		e.sendProgress(progress, fetchDetailsUpdate(len(ids)))
		details, err = FetchVideoDetails(ctx, e.catalog, ids)
		if err != nil {
			return nil, err
		}
	} else if len(snapshot) > 0 {
		logger.Warn("no video ids in fetched items", "items", len(snapshot))
	}

	result.Items = JoinDetails(snapshot, details)
	result.ReturnedCount = len(result.Items)
	result.MissingCount = CountMissing(result.Items)
	e.sendProgress(progress, joinItemsUpdate(result.ReturnedCount, result.MissingCount))

	logger.Info("playlist enriched", "returned", result.ReturnedCount, "missing", result.MissingCount, "more", token != "")
	return result, nil
}

// SearchBatch resolves free-text queries to their top video hits.
//
// Queries are trimmed, blanks dropped, and the list capped before dispatch. Per-query failures are
// recorded in the result and never fail the batch.
func (e *PlaylistEngine) SearchBatch(ctx context.Context, progress chan<- ProgressUpdate, queries []string, opts SearchOpts) ([]models.MatchRecord, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: YouTube service not initialized", shared.ErrServiceUnavailable)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: queries are required", shared.ErrInvalidInput)
	}

	normalized := shared.NormalizeQueries(queries, 0)
	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: queries must contain at least one non-blank string", shared.ErrInvalidInput)
	}

	maxQueries := e.limits.MaxQueries
	if opts.MaxQueries != nil {
		maxQueries = max(min(*opts.MaxQueries, e.limits.MaxQueriesCap), 0)
	}
	normalized = normalized[:min(len(normalized), maxQueries)]
	if len(normalized) == 0 {
		return []models.MatchRecord{}, nil
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = e.limits.SearchConcurrency
	}

	return e.search(ctx, progress, normalized, concurrency), nil
}

func (e *PlaylistEngine) search(ctx context.Context, progress chan<- ProgressUpdate, queries []string, concurrency int) []models.MatchRecord {
	logger := shared.WithLogger(e.logger, "query_count", len(queries))
	logger.Debug("resolving queries", "concurrency", concurrency)

	var done atomic.Int64
	records := resolveMatches(ctx, e.catalog, queries, concurrency, func(rec models.MatchRecord) {
		n := int(done.Add(1))
		if !rec.OK {
			logger.Warn("search failed", "query", rec.Query, "error", rec.Error)
		}
		e.sendProgress(progress, searchQueryUpdate(n, len(queries), rec))
	})

	return records
}

// Recommend cleans and deduplicates titles, asks the recommender for suggestions, then resolves
// every suggestion's query and merges the matches back by query text.
func (e *PlaylistEngine) Recommend(ctx context.Context, progress chan<- ProgressUpdate, req RecommendRequest) (*RecommendResult, error) {
	if e.recommender == nil {
		return nil, fmt.Errorf("%w: recommender not initialized", shared.ErrServiceUnavailable)
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: YouTube service not initialized", shared.ErrServiceUnavailable)
	}
	if len(req.Titles) == 0 {
		return nil, fmt.Errorf("%w: titles are required", shared.ErrInvalidInput)
	}

	titles := shared.PrepareTitles(req.Titles, e.limits.MaxTitles)
	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: titles must contain at least one non-blank string", shared.ErrInvalidInput)
	}

	count := shared.ClampInt(req.Max, e.limits.DefaultRecommendations, 1, e.limits.MaxRecommendations)

	e.sendProgress(progress, generateUpdate(len(titles), count))
	set, err := e.recommender.Recommend(ctx, titles, count)
	if err != nil {
		return nil, fmt.Errorf("failed to generate recommendations: %w", err)
	}
	if set == nil {
		return nil, fmt.Errorf("%w: recommender returned no result", shared.ErrInvalidResponse)
	}

	for i := range set.Recommendations {
		set.Recommendations[i].Query = strings.TrimSpace(set.Recommendations[i].Query)
	}

	queries := shared.NormalizeQueries(set.Queries(), 0)
	records := e.search(ctx, progress, queries, e.limits.SearchConcurrency)
	set.Recommendations = MergeMatches(set.Recommendations, IndexMatches(records))

	result := &RecommendResult{
		RecommendationSet: *set,
		TitleCount:        len(titles),
		MatchedCount:      CountMatched(set.Recommendations),
	}
	e.sendProgress(progress, attachMatchesUpdate(result.MatchedCount, len(set.Recommendations)))

	return result, nil
}

// RecommendFromPlaylist enriches a playlist and recommends from the titles of its available items.
func (e *PlaylistEngine) RecommendFromPlaylist(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, limit, count int) (*RecommendResult, error) {
	req := EnrichRequest{PlaylistID: playlistID}
	if limit > 0 {
		req.Limit = LimitTo(limit)
	}
	enriched, err := e.Enrich(ctx, progress, req)
	if err != nil {
		return nil, err
	}

	titles := AvailableTitles(enriched.Items)
	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: playlist %s has no available videos", shared.ErrInvalidInput, playlistID)
	}

	return e.Recommend(ctx, progress, RecommendRequest{Titles: titles, Max: count})
}

// ListPlaylists fetches one page of the authenticated user's playlists.
func (e *PlaylistEngine) ListPlaylists(ctx context.Context, progress chan<- ProgressUpdate, pageToken string) (*models.PlaylistPage, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: YouTube service not initialized", shared.ErrServiceUnavailable)
	}

	page, err := e.catalog.ListPlaylists(ctx, pageToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	e.sendProgress(progress, fetchPlaylistsUpdate(len(page.Items), page))
	return page, nil
}

// pageReporter reports each fetched page while delegating to the wrapped lister.
type pageReporter struct {
	src     services.PlaylistItemLister
	target  int
	page    int
	fetched int
	notify  func(ProgressUpdate)
}

func (p *pageReporter) ListPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (*models.ListPage, error) {
	page, err := p.src.ListPlaylistItems(ctx, playlistID, pageSize, pageToken)
	if err != nil {
		return nil, err
	}

	p.page++
	p.fetched += len(page.Items)
	p.notify(fetchPageUpdate(p.page, min(p.fetched, p.target), p.target))
	return page, nil
}
