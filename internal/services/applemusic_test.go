package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"syncopate/internal/shared"
)

type staticTokens string

func (s staticTokens) DeveloperToken() (string, error) { return string(s), nil }

type failingTokens struct{ err error }

func (f failingTokens) DeveloperToken() (string, error) { return "", f.err }

func newTestAppleMusic(t *testing.T, handler http.Handler) (*AppleMusicService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewAppleMusicService(staticTokens("dev-token"), "user-token", "us")
	if err != nil {
		t.Fatalf("NewAppleMusicService() error = %v", err)
	}
	svc.baseURL = server.URL
	return svc, server
}

func TestNewAppleMusicService(t *testing.T) {
	t.Run("Rejects Missing Token Source", func(t *testing.T) {
		_, err := NewAppleMusicService(nil, "user-token", "us")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("error = %v, want ErrMissingCredentials", err)
		}
	})

	t.Run("Rejects Missing User Token", func(t *testing.T) {
		_, err := NewAppleMusicService(staticTokens("dev"), "", "us")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("error = %v, want ErrMissingCredentials", err)
		}
	})

	t.Run("Defaults Storefront", func(t *testing.T) {
		svc, err := NewAppleMusicService(staticTokens("dev"), "user-token", "")
		if err != nil {
			t.Fatalf("NewAppleMusicService() error = %v", err)
		}
		if svc.storefront != "us" {
			t.Errorf("storefront = %q, want us", svc.storefront)
		}
	})
}

func TestAppleMusicHeaders(t *testing.T) {
	t.Run("Sends Both Credentials", func(t *testing.T) {
		var gotAuth, gotUserToken string
		svc, _ := newTestAppleMusic(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotUserToken = r.Header.Get("Music-User-Token")
			fmt.Fprint(w, `{"data": []}`)
		}))

		if _, err := svc.GetUserPlaylists(context.Background()); err != nil {
			t.Fatalf("GetUserPlaylists() error = %v", err)
		}
		if gotAuth != "Bearer dev-token" {
			t.Errorf("Authorization = %q, want Bearer dev-token", gotAuth)
		}
		if gotUserToken != "user-token" {
			t.Errorf("Music-User-Token = %q, want user-token", gotUserToken)
		}
	})

	t.Run("Token Source Failure Aborts Request", func(t *testing.T) {
		svc, err := NewAppleMusicService(failingTokens{errors.New("key unreadable")}, "user-token", "us")
		if err != nil {
			t.Fatalf("NewAppleMusicService() error = %v", err)
		}

		if _, err := svc.GetUserPlaylists(context.Background()); err == nil {
			t.Fatal("expected an error from the token source")
		}
	})
}

func TestAppleMusicStatusTranslation(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"Unauthorized", http.StatusUnauthorized, shared.ErrAuthExpired},
		{"Forbidden", http.StatusForbidden, shared.ErrForbidden},
		{"Rate Limited", http.StatusTooManyRequests, shared.ErrRateLimited},
		{"Not Found", http.StatusNotFound, shared.ErrNotFound},
		{"Server Error", http.StatusBadGateway, shared.ErrService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestAppleMusic(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))

			_, err := svc.GetPlaylistDetails(context.Background(), "pl1")
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAppleMusicGetPlaylistDetails(t *testing.T) {
	t.Run("Empty Data Is Playlist Not Found", func(t *testing.T) {
		svc, _ := newTestAppleMusic(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data": []}`)
		}))

		_, err := svc.GetPlaylistDetails(context.Background(), "pl1")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("error = %v, want ErrPlaylistNotFound", err)
		}
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("error = %v, want it to wrap ErrNotFound", err)
		}
	})

	t.Run("Expands Artwork Template", func(t *testing.T) {
		svc, _ := newTestAppleMusic(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data": [{
				"id": "pl1",
				"attributes": {
					"name": "Road Trip",
					"trackCount": 3,
					"artwork": {"url": "https://example.com/{w}x{h}.jpg"}
				}
			}]}`)
		}))

		playlist, err := svc.GetPlaylistDetails(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("GetPlaylistDetails() error = %v", err)
		}
		if playlist.ImageURL != "https://example.com/640x640.jpg" {
			t.Errorf("ImageURL = %q", playlist.ImageURL)
		}
	})
}

func TestAppleMusicGetPlaylistTracks(t *testing.T) {
	t.Run("Skips Unresolvable Entries", func(t *testing.T) {
		svc, _ := newTestAppleMusic(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data": [
				{"id": "s1", "attributes": {"name": "One", "artistName": "A", "albumName": "LP", "isrc": "ISRC1"}},
				{"id": "", "attributes": {"name": "Ghost"}},
				{"id": "s3", "attributes": {"name": ""}}
			]}`)
		}))

		tracks, err := svc.GetPlaylistTracks(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("GetPlaylistTracks() error = %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "s1" || tracks[0].ISRC != "ISRC1" {
			t.Errorf("tracks = %+v, want only s1", tracks)
		}
		if tracks[0].Service != AppleMusicName {
			t.Errorf("Service = %q, want %q", tracks[0].Service, AppleMusicName)
		}
	})
}

func TestAppleMusicSearchByISRC(t *testing.T) {
	t.Run("Uses Catalog ISRC Filter", func(t *testing.T) {
		var gotPath, gotFilter string
		svc, _ := newTestAppleMusic(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotFilter = r.URL.Query().Get("filter[isrc]")
			fmt.Fprint(w, `{"data": [{"id": "c1", "attributes": {"name": "Hit", "artistName": "A", "isrc": "USUM71703861"}}]}`)
		}))

		track, err := svc.SearchByISRC(context.Background(), "USUM71703861")
		if err != nil {
			t.Fatalf("SearchByISRC() error = %v", err)
		}
		if gotPath != "/catalog/us/songs" {
			t.Errorf("path = %q, want /catalog/us/songs", gotPath)
		}
		if gotFilter != "USUM71703861" {
			t.Errorf("filter[isrc] = %q", gotFilter)
		}
		if track == nil || track.ID != "c1" {
			t.Errorf("track = %+v", track)
		}
	})

	t.Run("No Hit Returns Nil Without Error", func(t *testing.T) {
		svc, _ := newTestAppleMusic(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data": []}`)
		}))

		track, err := svc.SearchByISRC(context.Background(), "NOPE")
		if err != nil {
			t.Fatalf("SearchByISRC() error = %v", err)
		}
		if track != nil {
			t.Errorf("track = %+v, want nil", track)
		}
	})
}

func TestAppleMusicCreatePlaylist(t *testing.T) {
	t.Run("Creates Then Adds Song Refs", func(t *testing.T) {
		var addBodies []struct {
			Data []appleSongRef `json:"data"`
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/me/library/playlists", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data": [{"id": "p.new", "attributes": {"name": "Mix"}}]}`)
		})
		mux.HandleFunc("/me/library/playlists/p.new/tracks", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Data []appleSongRef `json:"data"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			addBodies = append(addBodies, body)
			w.WriteHeader(http.StatusNoContent)
		})

		svc, _ := newTestAppleMusic(t, mux)

		playlist, err := svc.CreatePlaylist(context.Background(), "Mix", "desc", []string{"c1", "c2"})
		if err != nil {
			t.Fatalf("CreatePlaylist() error = %v", err)
		}

		if playlist.ID != "p.new" || playlist.TrackCount != 2 {
			t.Errorf("playlist = %+v", playlist)
		}
		if len(addBodies) != 1 || len(addBodies[0].Data) != 2 {
			t.Fatalf("add bodies = %+v", addBodies)
		}
		if addBodies[0].Data[0].ID != "c1" || addBodies[0].Data[0].Type != "songs" {
			t.Errorf("first ref = %+v, want {c1 songs}", addBodies[0].Data[0])
		}
	})
}

func TestAppleMusicFindPlaylistByName(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [
			{"id": "p1", "attributes": {"name": "Road Trip (from Spotify)", "trackCount": 3}},
			{"id": "p2", "attributes": {"name": "Workout", "trackCount": 5}}
		]}`)
	})

	t.Run("Case Insensitive", func(t *testing.T) {
		svc, _ := newTestAppleMusic(t, handler)
		found, err := svc.FindPlaylistByName(context.Background(), "workout")
		if err != nil {
			t.Fatalf("FindPlaylistByName() error = %v", err)
		}
		if found == nil || found.ID != "p2" {
			t.Errorf("found = %+v, want p2", found)
		}
	})

	t.Run("Tolerates From Suffix", func(t *testing.T) {
		svc, _ := newTestAppleMusic(t, handler)
		found, err := svc.FindPlaylistByName(context.Background(), "Road Trip")
		if err != nil {
			t.Fatalf("FindPlaylistByName() error = %v", err)
		}
		if found == nil || found.ID != "p1" {
			t.Errorf("found = %+v, want p1 despite suffix", found)
		}
	})

	t.Run("No Match Returns Nil", func(t *testing.T) {
		svc, _ := newTestAppleMusic(t, handler)
		found, err := svc.FindPlaylistByName(context.Background(), "Nonexistent")
		if err != nil {
			t.Fatalf("FindPlaylistByName() error = %v", err)
		}
		if found != nil {
			t.Errorf("found = %+v, want nil", found)
		}
	})
}
