package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytrec/internal/models"
	"github.com/desertthunder/ytrec/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ItemListView
	ConfirmView
	RecommendView
	ResultView
)

// Options tunes the requests the TUI makes.
type Options struct {
	Limit int // Playlist entries to enrich; 0 uses the engine default
	Count int // Recommendations to request; 0 uses the engine default
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.PlaylistEngine
	opts         Options
	width        int
	height       int
	loading      bool
	playlistList list.Model
	itemList     list.Model
	selected     *models.PlaylistSummary
	enriched     *tasks.EnrichResult
	titles       []string
	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.RecommendResult
	results      viewport.Model
	spinner      spinner.Model
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.PlaylistEngine, opts Options) *Model {
	playlists := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	playlists.Title = "YouTube Playlists"

	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		engine:       engine,
		opts:         opts,
		loading:      true,
		playlistList: playlists,
		itemList:     list.New(nil, list.NewDefaultDelegate(), 0, 0),
		results:      viewport.New(0, 0),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(NewStyle("#7D56F4"))),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Err returns the error that ended the session, if any.
func (m *Model) Err() error {
	return m.err
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlaylists(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ItemListView:
			return m.handleItemListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case RecommendView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if !m.loading && m.view != RecommendView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		payload := msg.data.(playlistsPayload)
		m.loading = false
		if payload.err != nil {
			m.err = payload.err
			return m, tea.Quit
		}
		m.playlistList.SetItems(playlistItems(payload.page))
		m.playlistList.Title = fmt.Sprintf("YouTube Playlists (%d of %d)", len(payload.page.Items), payload.page.TotalResults)
		return m, nil

	case MsgItemsFetched:
		payload := msg.data.(itemsPayload)
		m.loading = false
		if payload.err != nil {
			m.err = payload.err
			m.view = PlaylistListView
			return m, nil
		}
		m.enriched = payload.result
		m.titles = tasks.AvailableTitles(payload.result.Items)
		m.itemList.SetItems(entryItems(payload.result.Items))
		m.itemList.Title = fmt.Sprintf("Videos in '%s' (%d unavailable)", m.selectedTitle(), payload.result.MissingCount)
		m.itemList.ResetSelected()
		m.view = ItemListView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgRecommendComplete:
		payload := msg.data.(recommendPayload)
		m.result = payload.result
		m.err = payload.err
		m.loading = false
		m.progressChan = nil
		m.doneChan = nil
		m.view = ResultView
		m.results.SetContent(m.renderRecommendations())
		m.results.GotoTop()
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", Styles.Err(fmt.Sprintf("Error: %v", m.err)), helpView)
	}

	if m.loading {
		return fmt.Sprintf("%s Loading...", m.spinner.View())
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ItemListView:
		return m.renderItemList()
	case ConfirmView:
		return m.renderConfirm()
	case RecommendView:
		return m.renderRecommend()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) resize() {
	m.playlistList.SetSize(max(m.width-4, 0), max(m.height-8, 0))
	m.itemList.SetSize(max(m.width-4, 0), max(m.height-8, 0))
	m.results.Width = max(m.width-4, 0)
	m.results.Height = max(m.height-10, 0)
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.err != nil {
			m.err = nil
			return m, nil
		}
	case "enter":
		if m.loading || m.err != nil {
			return m, nil
		}
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected = &pl.playlist
			m.loading = true
			return m, tea.Batch(m.fetchItems(pl.playlist.ID), m.spinner.Tick)
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleItemListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.itemList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.itemList, cmd = m.itemList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.itemList, cmd = m.itemList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "n", "esc":
		m.view = ItemListView
		return m, nil
	case "y":
		m.view = RecommendView
		return m, tea.Batch(m.startRecommend(), m.spinner.Tick)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlaylistListView
		m.selected = nil
		m.enriched = nil
		m.titles = nil
		m.result = nil
		m.err = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ItemListView:
		m.itemList, cmd = m.itemList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		page, err := m.engine.ListPlaylists(m.ctx, nil, "")
		return playlistsFetchedMsg(page, err)
	}
}

func (m *Model) fetchItems(playlistID string) tea.Cmd {
	req := tasks.EnrichRequest{PlaylistID: playlistID}
	if m.opts.Limit > 0 {
		req.Limit = tasks.LimitTo(m.opts.Limit)
	}
	return func() tea.Msg {
		result, err := m.engine.Enrich(m.ctx, nil, req)
		return itemsFetchedMsg(result, err)
	}
}

// startRecommend runs the recommendation in the background and returns the first progress wait.
func (m *Model) startRecommend() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan, m.doneChan = progress, done
	m.progress = tasks.ProgressUpdate{}

	titles, count := m.titles, m.opts.Count
	go func() {
		result, err := m.engine.Recommend(m.ctx, progress, tasks.RecommendRequest{Titles: titles, Max: count})
		done <- recommendCompleteMsg(result, err)
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return recommendCompleteMsg(m.result, m.err)
		}
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) selectedTitle() string {
	if m.selected == nil {
		return ""
	}
	return m.selected.Title
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderItemList() string {
	recommendKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "recommend"),
	)
	helpKeys := []key.Binding{recommendKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.itemList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := Styles.Title(fmt.Sprintf("Recommend from '%s'?", m.selectedTitle()))

	total := 0
	if m.enriched != nil {
		total = m.enriched.ReturnedCount
	}
	count := "default"
	if m.opts.Count > 0 {
		count = fmt.Sprintf("%d", m.opts.Count)
	}
	info := fmt.Sprintf("\nAvailable titles: %d of %d\nRecommendations: %s\n", len(m.titles), total, count)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderRecommend() string {
	title := Styles.Title("Generating Recommendations")

	var phase string
	switch m.progress.Phase {
	case tasks.GenerateRecommendations:
		phase = fmt.Sprintf("Asking the model for %d recommendations...", m.progress.Total)
	case tasks.SearchQueries:
		phase = fmt.Sprintf("Matching videos (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.AttachMatches:
		phase = "Attaching matches..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), phase, m.progress.Message)
}

func (m *Model) renderRecommendations() string {
	if m.result == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(ProfileBlock(m.result.Profile))
	for i, rec := range m.result.Recommendations {
		b.WriteString("\n")
		b.WriteString(RecommendationLine(i, rec))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return Styles.Err(fmt.Sprintf("Recommendation failed: %v\n\nPress r to restart, q to quit", m.err))
	}

	if m.result == nil {
		return Styles.Err("No result available\n\nPress r to restart, q to quit")
	}

	title := Styles.OK(fmt.Sprintf("✓ %d recommendations (%d matched)", len(m.result.Recommendations), m.result.MatchedCount))

	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	body := lipgloss.NewStyle().PaddingLeft(1).Render(m.results.View())
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, helpView)
}
