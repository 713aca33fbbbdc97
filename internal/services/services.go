// package services defines interface Service for interacting with music catalog HTTP APIs
//
// Spotify, Apple Music
package services

import (
	"context"

	"syncopate/internal/models"
)

// Service names as reported by [Service.Name].
const (
	SpotifyName    = "Spotify"
	AppleMusicName = "Apple Music"
)

// Service is the uniform read/write contract over one music service's
// playlists, tracks, and catalog search. Each implementation supplies its own
// complete normalization from the service's native payloads into the shared
// models; there is no shared default normalization.
//
// Absence is not an error: SearchByISRC and FindPlaylistByName return
// (nil, nil) when nothing is found. Transport failures are translated into
// the shared error taxonomy before they leave the adapter.
type Service interface {
	// GetUserPlaylists fetches every playlist visible to the authenticated
	// user, paginating transparently, in service-native order.
	GetUserPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylistDetails retrieves one playlist's metadata.
	// Returns shared.ErrNotFound when the playlist is absent or inaccessible.
	GetPlaylistDetails(ctx context.Context, playlistID string) (*models.Playlist, error)

	// GetPlaylistTracks materializes every track in the playlist, paginating
	// transparently. Local-only or unavailable tracks are silently excluded.
	GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// SearchTracks performs a free-text catalog search in service-native
	// relevance order, capped at limit results.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// SearchByISRC looks a recording up directly by its ISRC.
	// Returns (nil, nil) when the catalog has no entry for it.
	SearchByISRC(ctx context.Context, isrc string) (*models.Track, error)

	// CreatePlaylist creates a new playlist and populates it with the given
	// track IDs, batching additions by Capabilities().BatchSize.
	CreatePlaylist(ctx context.Context, name, description string, trackIDs []string) (*models.Playlist, error)

	// AddTracksToPlaylist appends tracks to an existing playlist, batching as
	// above. It does not deduplicate; callers pre-filter.
	AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) (*models.Playlist, error)

	// FindPlaylistByName locates a playlist in the user's library by name.
	// Matching rules are service-specific and deliberately not unified:
	// Spotify compares exact and case-sensitive, Apple Music compares
	// case-insensitively and tolerates a "(from <source>)" suffix.
	// Returns (nil, nil) when no playlist matches.
	FindPlaylistByName(ctx context.Context, name string) (*models.Playlist, error)

	// Capabilities returns the static per-service metadata used by the sync
	// engine for feasibility checks.
	Capabilities() models.Capabilities

	// Name returns the service name (e.g., "Spotify", "Apple Music")
	Name() string
}
