package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/services"
)

// MaxPageSize is the most items requested per playlistItems call.
const MaxPageSize = services.MaxPageSize

// FetchPlaylistItems pages through a playlist until target items are collected or the list ends.
//
// Pages are requested sequentially starting at pageToken, each asking for at most
// min([MaxPageSize], remaining) items. The result never exceeds target. The returned token is the
// last page's continuation token and is empty only when the provider reported no further page.
//
// A failed page aborts the whole fetch and no partial result is returned.
func FetchPlaylistItems(ctx context.Context, src services.PlaylistItemLister, playlistID string, target int, pageToken string) ([]models.SnapshotItem, string, error) {
	if target <= 0 {
		return []models.SnapshotItem{}, "", nil
	}

	items := make([]models.SnapshotItem, 0, min(target, MaxPageSize))
	token := pageToken

	for page := 1; len(items) < target; page++ {
		size := min(MaxPageSize, target-len(items))

		resp, err := src.ListPlaylistItems(ctx, playlistID, size, token)
		if err != nil {
			return nil, "", fmt.Errorf("failed to fetch playlist page %d: %w", page, err)
		}

		items = append(items, resp.Items...)
		token = resp.NextPageToken

		// an empty page with a token would never advance
		if token == "" || len(resp.Items) == 0 {
			break
		}
	}

	if len(items) > target {
		items = items[:target]
	}

	return items, token, nil
}
