package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytrec/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = entryItem{}
)

// playlistItem wraps [models.PlaylistSummary] to implement [list.Item].
type playlistItem struct {
	playlist models.PlaylistSummary
}

func (i playlistItem) FilterValue() string { return i.playlist.Title }
func (i playlistItem) Title() string       { return i.playlist.Title }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d videos", i.playlist.ItemCount)
	if i.playlist.PrivacyStatus != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.PrivacyStatus)
	}
	return desc
}

// entryItem wraps [models.EnrichedItem] to implement [list.Item].
type entryItem struct {
	entry models.EnrichedItem
}

func (i entryItem) FilterValue() string { return i.entry.Title() }
func (i entryItem) Title() string {
	if i.entry.Missing {
		return MarkMissing + " " + i.entry.Title()
	}
	return i.entry.Title()
}
func (i entryItem) Description() string {
	if i.entry.Missing {
		return "unavailable"
	}
	desc := i.entry.Video.ChannelTitle
	if i.entry.Video.Duration != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.entry.Video.Duration)
	}
	return desc
}

func playlistItems(page *models.PlaylistPage) []list.Item {
	items := make([]list.Item, len(page.Items))
	for i, pl := range page.Items {
		items[i] = playlistItem{playlist: pl}
	}
	return items
}

func entryItems(entries []models.EnrichedItem) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}
	return items
}
