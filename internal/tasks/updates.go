package tasks

import (
	"fmt"

	"github.com/desertthunder/ytrec/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or HTTP layer for logging.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPages Phase = iota
	FetchDetails
	JoinItems
	SearchQueries
	GenerateRecommendations
	AttachMatches
	FetchPlaylists
)

func (p Phase) String() string {
	switch p {
	case FetchPages:
		return "fetch_pages"
	case FetchDetails:
		return "fetch_details"
	case JoinItems:
		return "join_items"
	case SearchQueries:
		return "search_queries"
	case GenerateRecommendations:
		return "generate_recommendations"
	case AttachMatches:
		return "attach_matches"
	case FetchPlaylists:
		return "fetch_playlists"
	default:
		return ""
	}
}

func fetchPageUpdate(page, fetched, target int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    fetched,
		Total:   target,
		Message: fmt.Sprintf("Fetched page %d (%d/%d items)", page, fetched, target),
	}
}

func fetchDetailsUpdate(ids int) ProgressUpdate {
	batches := (ids + MaxBatchSize - 1) / MaxBatchSize
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    0,
		Total:   batches,
		Message: fmt.Sprintf("Fetching details for %d videos in %d batches...", ids, batches),
	}
}

func joinItemsUpdate(returned, missing int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   JoinItems,
		Step:    returned,
		Total:   returned,
		Message: fmt.Sprintf("Joined %d items (%d missing)", returned, missing),
	}
}

func searchQueryUpdate(done, total int, rec models.MatchRecord) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] Searched: %s", done, total, rec.Query)
	if !rec.OK {
		msg = fmt.Sprintf("[%d/%d] Search failed: %s", done, total, rec.Query)
	}
	return ProgressUpdate{
		Phase:   SearchQueries,
		Step:    done,
		Total:   total,
		Message: msg,
		Data:    rec,
	}
}

func generateUpdate(titles, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateRecommendations,
		Step:    0,
		Total:   count,
		Message: fmt.Sprintf("Generating %d recommendations from %d titles...", count, titles),
	}
}

func attachMatchesUpdate(matched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AttachMatches,
		Step:    matched,
		Total:   total,
		Message: fmt.Sprintf("Matched %d/%d recommendations", matched, total),
	}
}

func fetchPlaylistsUpdate(count int, page *models.PlaylistPage) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    count,
		Total:   page.TotalResults,
		Message: fmt.Sprintf("Fetched %d playlists", count),
		Data:    page,
	}
}
