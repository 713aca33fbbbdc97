package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"

	"syncopate/internal/models"
)

type mockCatalog struct {
	name          string
	isrcResults   map[string]*models.Track
	isrcErr       error
	searchResults map[string][]models.Track
	searchErr     error
	searchCalls   []string
}

func (m *mockCatalog) Name() string {
	if m.name == "" {
		return "Mock"
	}
	return m.name
}

func (m *mockCatalog) GetUserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return nil, nil
}

func (m *mockCatalog) GetPlaylistDetails(ctx context.Context, playlistID string) (*models.Playlist, error) {
	return nil, nil
}

func (m *mockCatalog) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	return nil, nil
}

func (m *mockCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	m.searchCalls = append(m.searchCalls, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults[query], nil
}

func (m *mockCatalog) SearchByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	if m.isrcErr != nil {
		return nil, m.isrcErr
	}
	return m.isrcResults[isrc], nil
}

func (m *mockCatalog) CreatePlaylist(ctx context.Context, name, description string, trackIDs []string) (*models.Playlist, error) {
	return nil, nil
}

func (m *mockCatalog) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) (*models.Playlist, error) {
	return nil, nil
}

func (m *mockCatalog) FindPlaylistByName(ctx context.Context, name string) (*models.Playlist, error) {
	return nil, nil
}

func (m *mockCatalog) Capabilities() models.Capabilities {
	return models.Capabilities{SupportsISRC: true, MaxPlaylistTracks: 10000, BatchSize: 100, CanCreatePlaylists: true}
}

func testLogger() *log.Logger {
	logger := log.Default()
	logger.SetLevel(log.FatalLevel)
	return logger
}

func TestMatch(t *testing.T) {
	ctx := context.Background()

	source := models.Track{
		ID:     "src1",
		Name:   "Bohemian Rhapsody",
		Artist: "Queen",
		Album:  "A Night at the Opera",
		ISRC:   "GBUM71029604",
	}

	t.Run("ISRC Hit Wins Regardless Of Names", func(t *testing.T) {
		catalog := &mockCatalog{
			isrcResults: map[string]*models.Track{
				// Same recording under a remaster title. The ISRC hit
				// must be accepted without any name comparison.
				"GBUM71029604": {ID: "dst1", Name: "Bohemian Rhapsody - 2011 Remaster", Artist: "Queen"},
			},
		}

		result := New(catalog, testLogger()).Match(ctx, source)

		if !result.Matched() {
			t.Fatal("expected a match")
		}
		if result.Method != models.MatchISRC {
			t.Errorf("Method = %q, want %q", result.Method, models.MatchISRC)
		}
		if result.Confidence != 100 {
			t.Errorf("Confidence = %v, want 100", result.Confidence)
		}
		if result.Destination.ID != "dst1" {
			t.Errorf("Destination.ID = %q, want dst1", result.Destination.ID)
		}
		if len(catalog.searchCalls) != 0 {
			t.Errorf("expected no text searches after ISRC hit, got %v", catalog.searchCalls)
		}
	})

	t.Run("Falls Through To Artist Track Search", func(t *testing.T) {
		catalog := &mockCatalog{
			searchResults: map[string][]models.Track{
				"bohemian rhapsody queen": {
					{ID: "weak", Name: "Bohemian Polka", Artist: "Weird Al Yankovic"},
					{ID: "dst2", Name: "Bohemian Rhapsody", Artist: "Queen"},
				},
			},
		}

		result := New(catalog, testLogger()).Match(ctx, source)

		if result.Method != models.MatchArtistTrack {
			t.Errorf("Method = %q, want %q", result.Method, models.MatchArtistTrack)
		}
		if result.Confidence != 90 {
			t.Errorf("Confidence = %v, want 90", result.Confidence)
		}
		if result.Destination.ID != "dst2" {
			t.Errorf("Destination.ID = %q, want dst2", result.Destination.ID)
		}
	})

	t.Run("Falls Through To Album Track Search", func(t *testing.T) {
		catalog := &mockCatalog{
			searchResults: map[string][]models.Track{
				"bohemian rhapsody a night at the opera": {
					{ID: "dst3", Name: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera"},
				},
			},
		}

		result := New(catalog, testLogger()).Match(ctx, source)

		if result.Method != models.MatchAlbumTrack {
			t.Errorf("Method = %q, want %q", result.Method, models.MatchAlbumTrack)
		}
		if result.Confidence != 80 {
			t.Errorf("Confidence = %v, want 80", result.Confidence)
		}
	})

	t.Run("Skips Album Strategy Without Album", func(t *testing.T) {
		noAlbum := models.Track{Name: "Yesterday", Artist: "The Beatles"}
		catalog := &mockCatalog{searchResults: map[string][]models.Track{}}

		result := New(catalog, testLogger()).Match(ctx, noAlbum)

		if result.Matched() {
			t.Fatalf("expected no match, got %q", result.Method)
		}
		for _, q := range catalog.searchCalls {
			if q == "yesterday " {
				t.Errorf("album search ran with empty album: %q", q)
			}
		}
	})

	t.Run("Fuzzy Fallback Picks Best Weighted Candidate", func(t *testing.T) {
		catalog := &mockCatalog{
			searchResults: map[string][]models.Track{
				"bohemian rhapsody": {
					{ID: "cover", Name: "Bohemian Rhapsody", Artist: "Panic! At The Disco"},
					{ID: "dst4", Name: "Bohemian Rhapsody (Live)", Artist: "Queen"},
				},
			},
		}

		result := New(catalog, testLogger()).Match(ctx, source)

		if result.Method != models.MatchFuzzy {
			t.Errorf("Method = %q, want %q", result.Method, models.MatchFuzzy)
		}
		if result.Confidence != 70 {
			t.Errorf("Confidence = %v, want 70", result.Confidence)
		}
		if result.Destination.ID != "dst4" {
			t.Errorf("Destination.ID = %q, want dst4", result.Destination.ID)
		}
	})

	t.Run("Fuzzy Rejects Below Threshold", func(t *testing.T) {
		catalog := &mockCatalog{
			searchResults: map[string][]models.Track{
				"bohemian rhapsody": {
					{ID: "junk", Name: "Something Else Entirely", Artist: "Nobody"},
				},
			},
		}

		result := New(catalog, testLogger()).Match(ctx, source)

		if result.Matched() {
			t.Fatalf("expected no match, got %q via %q", result.Destination.ID, result.Method)
		}
		if result.Method != models.MatchNone {
			t.Errorf("Method = %q, want %q", result.Method, models.MatchNone)
		}
		if result.Destination != nil {
			t.Error("expected nil Destination on no match")
		}
	})

	t.Run("Strategy Errors Are Swallowed", func(t *testing.T) {
		catalog := &mockCatalog{
			isrcErr:   errors.New("isrc endpoint down"),
			searchErr: errors.New("search endpoint down"),
		}

		result := New(catalog, testLogger()).Match(ctx, source)

		if result.Matched() {
			t.Fatal("expected no match when every strategy errors")
		}
		if result.Method != models.MatchNone {
			t.Errorf("Method = %q, want %q", result.Method, models.MatchNone)
		}
	})

	t.Run("ISRC Miss Falls Through To Search", func(t *testing.T) {
		catalog := &mockCatalog{
			isrcResults: map[string]*models.Track{},
			searchResults: map[string][]models.Track{
				"bohemian rhapsody queen": {
					{ID: "dst5", Name: "Bohemian Rhapsody", Artist: "Queen"},
				},
			},
		}

		result := New(catalog, testLogger()).Match(ctx, source)

		if result.Method != models.MatchArtistTrack {
			t.Errorf("Method = %q, want %q", result.Method, models.MatchArtistTrack)
		}
	})
}
