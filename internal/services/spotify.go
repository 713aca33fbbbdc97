// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"syncopate/internal/models"
	"syncopate/internal/ratelimit"
	"syncopate/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// Spotify allows roughly 180 requests per minute per client before it starts
// returning 429s; the gate stays comfortably below that.
const (
	spotifyMaxRequests = 90
	spotifyWindow      = 30 * time.Second
)

type spotifyExternalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Artists     []SpotifyArtist    `json:"artists"`
	Album       SpotifyAlbum       `json:"album"`
	DurationMS  int                `json:"duration_ms"`
	ExternalIDs spotifyExternalIDs `json:"external_ids"`
	IsLocal     bool               `json:"is_local"`
	URI         string             `json:"uri"`
}

// SpotifyOwner represents a playlist owner.
type SpotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyTrackRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Owner       SpotifyOwner    `json:"owner"`
	Tracks      spotifyTrackRef `json:"tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	IsLocal bool          `json:"is_local"`
	Track   *SpotifyTrack `json:"track"`
}

type spotifyPage[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// SpotifyService implements [Service] for the Spotify Web API.
//
// The access token is supplied pre-validated by the caller (session store or
// config); the adapter never refreshes it and surfaces shared.ErrAuthExpired
// when the service rejects it.
type SpotifyService struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	baseURL    string
	userID     string // cached current-user ID for playlist creation
}

// NewSpotifyService creates a Spotify adapter around a pre-validated access token.
func NewSpotifyService(accessToken string) (*SpotifyService, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: missing Spotify access token", shared.ErrMissingCredentials)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	return &SpotifyService{
		httpClient: oauth2.NewClient(context.Background(), src),
		limiter:    ratelimit.New(spotifyMaxRequests, spotifyWindow),
		baseURL:    spotifyBaseURL,
	}, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return SpotifyName
}

// Capabilities returns Spotify's static sync metadata.
func (s *SpotifyService) Capabilities() models.Capabilities {
	return models.Capabilities{
		SupportsISRC:       true,
		MaxPlaylistTracks:  10000,
		BatchSize:          100,
		CanCreatePlaylists: true,
	}
}

// doRequest performs a rate-limited, authenticated request against the
// Spotify API and decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrService, err)
	}
	defer resp.Body.Close()

	if err := shared.FromStatus(SpotifyName, resp.StatusCode); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// normalizeTrack maps a Spotify track payload into the shared model.
// Only the primary artist is carried.
func (s *SpotifyService) normalizeTrack(st SpotifyTrack) models.Track {
	track := models.Track{
		ID:         st.ID,
		Name:       st.Name,
		Album:      st.Album.Name,
		DurationMS: st.DurationMS,
		ISRC:       st.ExternalIDs.ISRC,
		URI:        st.URI,
		Service:    SpotifyName,
	}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}
	return track
}

func (s *SpotifyService) normalizePlaylist(sp SpotifyPlaylist) models.Playlist {
	playlist := models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		Owner:       sp.Owner.DisplayName,
		Service:     SpotifyName,
	}
	if len(sp.Images) > 0 {
		playlist.ImageURL = sp.Images[0].URL
	}
	return playlist
}

// GetUserPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetUserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

		var page spotifyPage[SpotifyPlaylist]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			all = append(all, s.normalizePlaylist(sp))
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// GetPlaylistDetails retrieves a playlist by ID.
func (s *SpotifyService) GetPlaylistDetails(ctx context.Context, playlistID string) (*models.Playlist, error) {
	var sp SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &sp); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return nil, err
	}

	playlist := s.normalizePlaylist(sp)
	return &playlist, nil
}

// GetPlaylistTracks retrieves every track in a playlist.
// Local tracks and entries whose track payload is missing are skipped.
func (s *SpotifyService) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var all []models.Track
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

		var page spotifyPage[SpotifyPlaylistTrack]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.IsLocal || item.Track.IsLocal {
				continue
			}
			all = append(all, s.normalizeTrack(*item.Track))
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// SearchTracks performs a free-text track search.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Tracks spotifyPage[SpotifyTrack] `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, st := range response.Tracks.Items {
		tracks = append(tracks, s.normalizeTrack(st))
	}

	return tracks, nil
}

// SearchByISRC looks a recording up via Spotify's isrc: search filter.
func (s *SpotifyService) SearchByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=1", url.QueryEscape("isrc:"+isrc))

	var response struct {
		Tracks spotifyPage[SpotifyTrack] `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, nil
	}

	track := s.normalizeTrack(response.Tracks.Items[0])
	return &track, nil
}

// currentUserID returns the authenticated user's ID, fetching it once.
func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}

	var user struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return "", err
	}

	s.userID = user.ID
	return s.userID, nil
}

// CreatePlaylist creates a private playlist and populates it.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, trackIDs []string) (*models.Playlist, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	body := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
	}{Name: name, Description: description, Public: false}

	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	if len(trackIDs) > 0 {
		if err := s.addTracks(ctx, created.ID, trackIDs); err != nil {
			return nil, err
		}
	}

	playlist := s.normalizePlaylist(created)
	playlist.TrackCount = len(trackIDs)
	return &playlist, nil
}

// AddTracksToPlaylist appends tracks to an existing playlist and returns the
// refreshed playlist details.
func (s *SpotifyService) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) (*models.Playlist, error) {
	if err := s.addTracks(ctx, playlistID, trackIDs); err != nil {
		return nil, err
	}
	return s.GetPlaylistDetails(ctx, playlistID)
}

// addTracks posts track URIs in batches of the service batch size.
func (s *SpotifyService) addTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	batchSize := s.Capabilities().BatchSize

	for start := 0; start < len(trackIDs); start += batchSize {
		end := min(start+batchSize, len(trackIDs))

		uris := make([]string, 0, end-start)
		for _, id := range trackIDs[start:end] {
			uris = append(uris, "spotify:track:"+id)
		}

		body := struct {
			URIs []string `json:"uris"`
		}{URIs: uris}

		endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}

	return nil
}

// FindPlaylistByName scans the user's playlists for an exact, case-sensitive
// name match. Spotify names are compared verbatim; suffix tolerance belongs
// to the Apple Music adapter only.
func (s *SpotifyService) FindPlaylistByName(ctx context.Context, name string) (*models.Playlist, error) {
	playlists, err := s.GetUserPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	for _, pl := range playlists {
		if pl.Name == name {
			found := pl
			return &found, nil
		}
	}

	return nil, nil
}
