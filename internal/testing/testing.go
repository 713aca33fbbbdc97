// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"

	"syncopate/internal/models"
)

// MockService is a configurable test double for [services.Service].
// Zero value behaves as an empty, fully capable service.
type MockService struct {
	ServiceName string

	Playlists     []models.Playlist
	PlaylistByID  map[string]*models.Playlist
	TracksByID    map[string][]models.Track
	SearchResults map[string][]models.Track
	ISRCResults   map[string]*models.Track
	ByName        map[string]*models.Playlist
	Caps          *models.Capabilities

	Err error // When set, every operation fails with this error

	CreatedPlaylists []models.Playlist
}

func (m *MockService) Name() string {
	if m.ServiceName == "" {
		return "mock"
	}
	return m.ServiceName
}

func (m *MockService) Capabilities() models.Capabilities {
	if m.Caps != nil {
		return *m.Caps
	}
	return models.Capabilities{
		SupportsISRC:       true,
		MaxPlaylistTracks:  10000,
		BatchSize:          100,
		CanCreatePlaylists: true,
	}
}

func (m *MockService) GetUserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Playlists, nil
}

func (m *MockService) GetPlaylistDetails(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if pl, ok := m.PlaylistByID[playlistID]; ok {
		return pl, nil
	}
	return nil, errors.New("playlist not found")
}

func (m *MockService) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.TracksByID[playlistID], nil
}

func (m *MockService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.SearchResults[query], nil
}

func (m *MockService) SearchByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ISRCResults[isrc], nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, name, description string, trackIDs []string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	pl := models.Playlist{
		ID:          "mock-created",
		Name:        name,
		Description: description,
		TrackCount:  len(trackIDs),
		Service:     m.Name(),
	}
	m.CreatedPlaylists = append(m.CreatedPlaylists, pl)
	return &pl, nil
}

func (m *MockService) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if pl, ok := m.PlaylistByID[playlistID]; ok {
		return pl, nil
	}
	return &models.Playlist{ID: playlistID, TrackCount: len(trackIDs), Service: m.Name()}, nil
}

func (m *MockService) FindPlaylistByName(ctx context.Context, name string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByName[name], nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}
