package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"syncopate/internal/models"
	"syncopate/internal/services"
	"syncopate/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx              context.Context
	view             ViewState
	source           services.Service
	destination      string
	engine           *tasks.SyncEngine
	syncMode         models.SyncMode
	syncDone         chan syncCompleteMsg
	width            int
	height           int
	playlistList     list.Model
	playlists        []models.Playlist
	trackList        list.Model
	selectedPlaylist *models.Playlist
	selectedTracks   []models.Track
	progressChan     chan tasks.ProgressUpdate
	progress         tasks.ProgressUpdate
	result           *models.SyncResult
	err              error
	help             help.Model
	keys             keyMap
}

type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

type tracksFetchedMsg struct {
	playlist *models.Playlist
	tracks   []models.Track
	err      error
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *models.SyncResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
// destination is the display name of the destination service.
func NewModel(ctx context.Context, source services.Service, destination string, engine *tasks.SyncEngine, mode models.SyncMode) *Model {
	if mode == "" {
		mode = models.SyncCreate
	}
	return &Model{
		ctx:         ctx,
		view:        PlaylistListView,
		source:      source,
		destination: destination,
		engine:      engine,
		syncMode:    mode,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init initializes the TUI by fetching playlists from the source service.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = fmt.Sprintf("%s Playlists", m.source.Name())
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.selectedPlaylist = msg.playlist
		m.selectedTracks = msg.tracks
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				return m, m.fetchTracks(pl.playlist.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = TrackListView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlaylistListView
		m.selectedPlaylist = nil
		m.selectedTracks = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.source.GetUserPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.source.GetPlaylistDetails(m.ctx, playlistID)
		if err != nil {
			return tracksFetchedMsg{err: err}
		}
		tracks, err := m.source.GetPlaylistTracks(m.ctx, playlistID)
		return tracksFetchedMsg{playlist: playlist, tracks: tracks, err: err}
	}
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	done := make(chan syncCompleteMsg, 1)

	prog := m.progressChan
	go func() {
		result, err := m.engine.SyncPlaylist(m.ctx, prog, m.selectedPlaylist.ID, tasks.SyncOptions{
			Mode: m.syncMode,
		})
		done <- syncCompleteMsg{result: result, err: err}
		close(prog)
	}()

	m.syncDone = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	prog := m.progressChan
	done := m.syncDone
	return func() tea.Msg {
		if prog == nil {
			return <-done
		}

		update, ok := <-prog
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpView := m.help.ShortHelpView(m.keys.playlistHelp())
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpView := m.help.ShortHelpView(m.keys.trackHelp())
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync '%s' to %s?", m.selectedPlaylist.Name, m.destination))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\nMode: %s\n",
		m.selectedPlaylist.Name, len(m.selectedTracks), m.syncMode)

	helpView := m.help.ShortHelpView(m.keys.confirmHelp())

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchingSource:
		phase = "Fetching source playlist..."
	case tasks.ResolvingDestination:
		phase = "Resolving destination playlist..."
	case tasks.Matching:
		phase = fmt.Sprintf("Matching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Reconciling:
		phase = "Writing to destination..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")

	destName := "(none)"
	if m.result.DestinationPlaylist != nil {
		destName = m.result.DestinationPlaylist.Name
	}
	info := fmt.Sprintf(
		"\nSource: %s (%d tracks)\nDestination: %s\nMatched: %d/%d",
		m.result.SourcePlaylist.Name,
		m.result.TotalTracks,
		destName,
		m.result.MatchedTracks,
		m.result.TotalTracks,
	)

	var unmatched string
	if len(m.result.UnmatchedTracks) > 0 {
		unmatched = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("No match for %d tracks:", len(m.result.UnmatchedTracks))))
		for _, track := range m.result.UnmatchedTracks {
			unmatched += fmt.Sprintf("\n  • %s - %s", track.Artist, track.Name)
		}
	}

	helpView := m.help.ShortHelpView(m.keys.resultHelp())

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, unmatched, helpView)
}
