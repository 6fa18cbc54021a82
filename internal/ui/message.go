package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgItemsFetched
	MsgProgressUpdate
	MsgRecommendComplete
)

type playlistsPayload struct {
	page *models.PlaylistPage
	err  error
}

type itemsPayload struct {
	result *tasks.EnrichResult
	err    error
}

type recommendPayload struct {
	result *tasks.RecommendResult
	err    error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(page *models.PlaylistPage, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsPayload{page, err}}
}

// itemsFetchedMsg is the constructor for [MsgItemsFetched]
func itemsFetchedMsg(result *tasks.EnrichResult, err error) Msg {
	return Msg{kind: MsgItemsFetched, data: itemsPayload{result, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// recommendCompleteMsg is the constructor for [MsgRecommendComplete]
func recommendCompleteMsg(result *tasks.RecommendResult, err error) Msg {
	return Msg{kind: MsgRecommendComplete, data: recommendPayload{result, err}}
}
