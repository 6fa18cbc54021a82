package tasks

import "github.com/desertthunder/ytrec/internal/models"

// JoinDetails pairs each snapshot item with its detail record, keeping snapshot order.
//
// The output always has one entry per input item. An entry is missing when the item has no video
// id or the id has no record in details.
func JoinDetails(snapshot []models.SnapshotItem, details map[string]models.Video) []models.EnrichedItem {
	out := make([]models.EnrichedItem, len(snapshot))
	for i, item := range snapshot {
		entry := models.EnrichedItem{VideoID: item.VideoID, Snapshot: item, Missing: true}
		if item.VideoID != "" {
			if v, ok := details[item.VideoID]; ok {
				entry.Video = &v
				entry.Missing = false
			}
		}
		out[i] = entry
	}
	return out
}

// VideoIDs returns the non-empty video ids of items in order.
func VideoIDs(items []models.SnapshotItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.VideoID != "" {
			ids = append(ids, it.VideoID)
		}
	}
	return ids
}

// CountMissing returns how many entries have no detail record.
func CountMissing(items []models.EnrichedItem) int {
	n := 0
	for _, it := range items {
		if it.Missing {
			n++
		}
	}
	return n
}

// AvailableTitles returns the titles of entries that have a detail record, preferring the authoritative title.
func AvailableTitles(items []models.EnrichedItem) []string {
	titles := make([]string, 0, len(items))
	for _, it := range items {
		if !it.Missing {
			titles = append(titles, it.Title())
		}
	}
	return titles
}
