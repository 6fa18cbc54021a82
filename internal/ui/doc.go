// Package ui implements the terminal presentation layer: a lipgloss palette with line renderers
// shared by the CLI, and an interactive bubbletea program.
//
// The TUI walks a single workflow:
//  1. [PlaylistListView] : Browse the user's playlists
//  2. [ItemListView] : Review the enriched entries, unavailable videos flagged
//  3. [ConfirmView] : Confirm the recommendation request
//  4. [RecommendView] : Watch progress while suggestions are generated and matched
//  5. [ResultView] : Scroll the taste profile and matched recommendations
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the PlaylistEngine, which never blocks on a slow reader.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
