// package models defines the normalized data model shared by every music service adapter
package models

import (
	"time"
)

// Track is a music track normalized from a service response.
// A Track's ID is meaningful only within its originating service; tracks are
// never compared across services by ID, only via ISRC.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMS int    `json:"duration_ms,omitempty"`
	ISRC       string `json:"isrc,omitempty"`
	URI        string `json:"uri,omitempty"`
	Service    string `json:"service"`
}

// Playlist is a playlist normalized from a service response.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	ImageURL    string `json:"image_url,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Service     string `json:"service"`
}

// Capabilities describes the static per-service metadata consumed by the sync
// engine for feasibility checks.
type Capabilities struct {
	SupportsISRC       bool `json:"supports_isrc"`
	MaxPlaylistTracks  int  `json:"max_playlist_tracks"`
	BatchSize          int  `json:"batch_size"`
	CanCreatePlaylists bool `json:"can_create_playlists"`
}

// MatchMethod identifies which strategy produced a track match.
type MatchMethod string

const (
	MatchISRC        MatchMethod = "isrc"
	MatchArtistTrack MatchMethod = "artist_track"
	MatchAlbumTrack  MatchMethod = "album_track"
	MatchFuzzy       MatchMethod = "fuzzy"
	MatchNone        MatchMethod = "none"
)

// MatchResult is the outcome of resolving one source track against the
// destination catalog. A nil Destination means the track went unmatched,
// which is a normal outcome rather than an error.
type MatchResult struct {
	Source      Track       `json:"source"`
	Destination *Track      `json:"destination,omitempty"`
	Method      MatchMethod `json:"method"`
	Confidence  float64     `json:"confidence"` // 0-100, informational only
}

// Matched reports whether a destination track was found.
func (r MatchResult) Matched() bool {
	return r.Destination != nil
}

// UnmatchedTrack carries the metadata reported to the user for a track that
// found no counterpart in the destination catalog.
type UnmatchedTrack struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// SyncMode selects between creating a fresh destination playlist and
// updating an existing one.
type SyncMode string

const (
	SyncCreate SyncMode = "create"
	SyncUpdate SyncMode = "update"
)

// SyncResult captures everything a caller needs to know about one sync run.
// Entities are created fresh per run; nothing persists beyond it.
type SyncResult struct {
	RunID               string           `json:"run_id"`
	SourcePlaylist      *Playlist        `json:"source_playlist,omitempty"`
	DestinationPlaylist *Playlist        `json:"destination_playlist,omitempty"`
	SourceService       string           `json:"source_service"`
	DestinationService  string           `json:"destination_service"`
	TotalTracks         int              `json:"total_tracks"`
	MatchedTracks       int              `json:"matched_tracks"`
	UnmatchedTracks     []UnmatchedTrack `json:"unmatched_tracks"`
	Errors              []string         `json:"errors,omitempty"`
	Mode                SyncMode         `json:"sync_mode"`
	StartedAt           time.Time        `json:"started_at"`
	CompletedAt         time.Time        `json:"completed_at"`
	Duration            time.Duration    `json:"duration"`
}

// Finish stamps the completion time and derives the run duration.
func (r *SyncResult) Finish(now time.Time) {
	r.CompletedAt = now
	r.Duration = r.CompletedAt.Sub(r.StartedAt)
}
