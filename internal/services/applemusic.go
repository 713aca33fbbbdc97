// Apple Music API implementation of [Service]
//
// Payload shapes follow https://developer.apple.com/documentation/applemusicapi
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"syncopate/internal/models"
	"syncopate/internal/ratelimit"
	"syncopate/internal/shared"
)

const appleBaseURL = "https://api.music.apple.com/v1"

// Apple Music enforces a tighter ceiling than Spotify; it is also the
// service that gets the longer inter-batch pacing delay during matching.
const (
	appleMaxRequests = 50
	appleWindow      = 30 * time.Second
)

// appleArtwork carries the {w}x{h} URL template Apple returns for cover art.
type appleArtwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type appleDescription struct {
	Standard string `json:"standard"`
}

type applePlayParams struct {
	ID        string `json:"id"`
	CatalogID string `json:"catalogId"`
}

// appleSongAttributes is the attribute block shared by catalog and library songs.
type appleSongAttributes struct {
	Name             string           `json:"name"`
	ArtistName       string           `json:"artistName"`
	AlbumName        string           `json:"albumName"`
	DurationInMillis int              `json:"durationInMillis"`
	ISRC             string           `json:"isrc"`
	PlayParams       *applePlayParams `json:"playParams"`
}

// AppleSong represents a song resource.
type AppleSong struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	Attributes appleSongAttributes `json:"attributes"`
}

type applePlaylistAttributes struct {
	Name        string           `json:"name"`
	Description appleDescription `json:"description"`
	TrackCount  int              `json:"trackCount"`
	Artwork     *appleArtwork    `json:"artwork"`
}

// ApplePlaylist represents a library playlist resource.
type ApplePlaylist struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Attributes applePlaylistAttributes `json:"attributes"`
}

type applePage[T any] struct {
	Data []T    `json:"data"`
	Next string `json:"next"`
}

// DeveloperTokenSource supplies the short-lived signed developer token sent
// as the bearer credential on every Apple Music request. The adapter treats
// the token as an opaque precomputed value.
type DeveloperTokenSource interface {
	DeveloperToken() (string, error)
}

// AppleMusicService implements [Service] for the Apple Music API.
//
// Requests carry two credentials: the signed developer token (bearer) and
// the Music-User-Token header identifying the user's library. Both are
// supplied pre-validated; the adapter never refreshes either.
type AppleMusicService struct {
	tokens     DeveloperTokenSource
	userToken  string
	storefront string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	baseURL    string
}

// NewAppleMusicService creates an Apple Music adapter.
// storefront defaults to "us" when empty.
func NewAppleMusicService(tokens DeveloperTokenSource, userToken, storefront string) (*AppleMusicService, error) {
	if tokens == nil {
		return nil, fmt.Errorf("%w: missing developer token source", shared.ErrMissingCredentials)
	}
	if userToken == "" {
		return nil, fmt.Errorf("%w: missing Apple Music user token", shared.ErrMissingCredentials)
	}
	if storefront == "" {
		storefront = "us"
	}

	return &AppleMusicService{
		tokens:     tokens,
		userToken:  userToken,
		storefront: storefront,
		httpClient: http.DefaultClient,
		limiter:    ratelimit.New(appleMaxRequests, appleWindow),
		baseURL:    appleBaseURL,
	}, nil
}

// Name returns the service name.
func (a *AppleMusicService) Name() string {
	return AppleMusicName
}

// Capabilities returns Apple Music's static sync metadata.
func (a *AppleMusicService) Capabilities() models.Capabilities {
	return models.Capabilities{
		SupportsISRC:       true,
		MaxPlaylistTracks:  10000,
		BatchSize:          100,
		CanCreatePlaylists: true,
	}
}

func (a *AppleMusicService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	devToken, err := a.tokens.DeveloperToken()
	if err != nil {
		return fmt.Errorf("failed to obtain developer token: %w", err)
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

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+devToken)
	req.Header.Set("Music-User-Token", a.userToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrService, err)
	}
	defer resp.Body.Close()

	if err := shared.FromStatus(AppleMusicName, resp.StatusCode); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// artworkURL substitutes standard cover dimensions into Apple's URL template.
func artworkURL(art *appleArtwork) string {
	if art == nil || art.URL == "" {
		return ""
	}
	u := strings.ReplaceAll(art.URL, "{w}", "640")
	return strings.ReplaceAll(u, "{h}", "640")
}

func (a *AppleMusicService) normalizeSong(song AppleSong) models.Track {
	return models.Track{
		ID:         song.ID,
		Name:       song.Attributes.Name,
		Artist:     song.Attributes.ArtistName,
		Album:      song.Attributes.AlbumName,
		DurationMS: song.Attributes.DurationInMillis,
		ISRC:       song.Attributes.ISRC,
		Service:    AppleMusicName,
	}
}

func (a *AppleMusicService) normalizePlaylist(pl ApplePlaylist) models.Playlist {
	return models.Playlist{
		ID:          pl.ID,
		Name:        pl.Attributes.Name,
		Description: pl.Attributes.Description.Standard,
		TrackCount:  pl.Attributes.TrackCount,
		ImageURL:    artworkURL(pl.Attributes.Artwork),
		Owner:       "Apple Music User",
		Service:     AppleMusicName,
	}
}

// GetUserPlaylists retrieves every library playlist.
func (a *AppleMusicService) GetUserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/library/playlists?limit=%d&offset=%d", limit, offset)

		var page applePage[ApplePlaylist]
		if err := a.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, pl := range page.Data {
			all = append(all, a.normalizePlaylist(pl))
		}

		if page.Next == "" {
			break
		}
		offset += limit
	}

	return all, nil
}

// GetPlaylistDetails retrieves one library playlist.
func (a *AppleMusicService) GetPlaylistDetails(ctx context.Context, playlistID string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/me/library/playlists/%s", url.PathEscape(playlistID))

	var page applePage[ApplePlaylist]
	if err := a.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}

	if len(page.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	playlist := a.normalizePlaylist(page.Data[0])
	return &playlist, nil
}

// GetPlaylistTracks retrieves every track in a library playlist. Entries
// without a name (library-only uploads Apple cannot resolve) are skipped.
func (a *AppleMusicService) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var all []models.Track
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/library/playlists/%s/tracks?limit=%d&offset=%d",
			url.PathEscape(playlistID), limit, offset)

		var page applePage[AppleSong]
		if err := a.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, song := range page.Data {
			if song.ID == "" || song.Attributes.Name == "" {
				continue
			}
			all = append(all, a.normalizeSong(song))
		}

		if page.Next == "" {
			break
		}
		offset += limit
	}

	return all, nil
}

// SearchTracks searches the catalog for songs.
func (a *AppleMusicService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 25 {
		limit = 25
	}

	params := url.Values{}
	params.Set("term", query)
	params.Set("types", "songs")
	params.Set("limit", fmt.Sprintf("%d", limit))

	endpoint := fmt.Sprintf("/catalog/%s/search?%s", url.PathEscape(a.storefront), params.Encode())

	var response struct {
		Results struct {
			Songs applePage[AppleSong] `json:"songs"`
		} `json:"results"`
	}
	if err := a.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Results.Songs.Data))
	for _, song := range response.Results.Songs.Data {
		tracks = append(tracks, a.normalizeSong(song))
	}

	return tracks, nil
}

// SearchByISRC looks a song up directly via the catalog ISRC filter.
func (a *AppleMusicService) SearchByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	endpoint := fmt.Sprintf("/catalog/%s/songs?filter[isrc]=%s",
		url.PathEscape(a.storefront), url.QueryEscape(isrc))

	var page applePage[AppleSong]
	if err := a.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}

	if len(page.Data) == 0 {
		return nil, nil
	}

	track := a.normalizeSong(page.Data[0])
	return &track, nil
}

// CreatePlaylist creates a library playlist and populates it with catalog song IDs.
func (a *AppleMusicService) CreatePlaylist(ctx context.Context, name, description string, trackIDs []string) (*models.Playlist, error) {
	body := struct {
		Attributes struct {
			Name        string `json:"name"`
			Description string `json:"description,omitempty"`
		} `json:"attributes"`
	}{}
	body.Attributes.Name = name
	body.Attributes.Description = description

	var created applePage[ApplePlaylist]
	if err := a.doRequest(ctx, http.MethodPost, "/me/library/playlists", body, &created); err != nil {
		return nil, err
	}
	if len(created.Data) == 0 {
		return nil, fmt.Errorf("%w: create playlist returned no data", shared.ErrService)
	}

	playlistID := created.Data[0].ID
	if len(trackIDs) > 0 {
		if err := a.addTracks(ctx, playlistID, trackIDs); err != nil {
			return nil, err
		}
	}

	return &models.Playlist{
		ID:          playlistID,
		Name:        name,
		Description: description,
		TrackCount:  len(trackIDs),
		Owner:       "Apple Music User",
		Service:     AppleMusicName,
	}, nil
}

// AddTracksToPlaylist appends catalog songs to an existing library playlist
// and returns the refreshed playlist details.
func (a *AppleMusicService) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) (*models.Playlist, error) {
	if err := a.addTracks(ctx, playlistID, trackIDs); err != nil {
		return nil, err
	}
	return a.GetPlaylistDetails(ctx, playlistID)
}

type appleSongRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (a *AppleMusicService) addTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	batchSize := a.Capabilities().BatchSize

	for start := 0; start < len(trackIDs); start += batchSize {
		end := min(start+batchSize, len(trackIDs))

		refs := make([]appleSongRef, 0, end-start)
		for _, id := range trackIDs[start:end] {
			refs = append(refs, appleSongRef{ID: id, Type: "songs"})
		}

		body := struct {
			Data []appleSongRef `json:"data"`
		}{Data: refs}

		endpoint := fmt.Sprintf("/me/library/playlists/%s/tracks", url.PathEscape(playlistID))
		if err := a.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}

	return nil
}

// fromSuffix strips a trailing "(from <service>)" marker added by sync runs.
var fromSuffix = regexp.MustCompile(`\s*\(from [^)]+\)$`)

// FindPlaylistByName locates a library playlist by name, case-insensitively,
// tolerating a "(from <source>)" suffix on either side. Apple Music library
// search has looser name semantics than Spotify's, and the asymmetry is kept
// deliberately.
func (a *AppleMusicService) FindPlaylistByName(ctx context.Context, name string) (*models.Playlist, error) {
	playlists, err := a.GetUserPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(strings.TrimSpace(name))
	wantBase := strings.ToLower(strings.TrimSpace(fromSuffix.ReplaceAllString(name, "")))

	for _, pl := range playlists {
		got := strings.ToLower(strings.TrimSpace(pl.Name))
		gotBase := strings.ToLower(strings.TrimSpace(fromSuffix.ReplaceAllString(pl.Name, "")))

		if got == want || gotBase == wantBase {
			found := pl
			return &found, nil
		}
	}

	return nil, nil
}
