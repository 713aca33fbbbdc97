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

func newTestSpotify(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewSpotifyService("test-token")
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}
	svc.baseURL = server.URL
	return svc, server
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("Rejects Empty Token", func(t *testing.T) {
		_, err := NewSpotifyService("")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("error = %v, want ErrMissingCredentials", err)
		}
	})

	t.Run("Sends Bearer Token", func(t *testing.T) {
		var gotAuth string
		svc, _ := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			fmt.Fprint(w, `{"items": [], "next": null}`)
		}))

		if _, err := svc.GetUserPlaylists(context.Background()); err != nil {
			t.Fatalf("GetUserPlaylists() error = %v", err)
		}
		if gotAuth != "Bearer test-token" {
			t.Errorf("Authorization = %q, want Bearer test-token", gotAuth)
		}
	})
}

func TestSpotifyStatusTranslation(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"Unauthorized", http.StatusUnauthorized, shared.ErrAuthExpired},
		{"Forbidden", http.StatusForbidden, shared.ErrForbidden},
		{"Rate Limited", http.StatusTooManyRequests, shared.ErrRateLimited},
		{"Not Found", http.StatusNotFound, shared.ErrNotFound},
		{"Server Error", http.StatusInternalServerError, shared.ErrService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))

			_, err := svc.GetPlaylistDetails(context.Background(), "pl1")
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSpotifyGetPlaylistDetails(t *testing.T) {
	t.Run("Missing Playlist", func(t *testing.T) {
		svc, _ := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		_, err := svc.GetPlaylistDetails(context.Background(), "missing")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("error = %v, want ErrPlaylistNotFound", err)
		}
	})
}

func TestSpotifyGetPlaylistTracks(t *testing.T) {
	t.Run("Paginates And Skips Local Tracks", func(t *testing.T) {
		page2URL := "" // set once the server URL is known

		mux := http.NewServeMux()
		mux.HandleFunc("/playlists/pl1/tracks", func(w http.ResponseWriter, r *http.Request) {
			offset := r.URL.Query().Get("offset")
			if offset == "0" {
				fmt.Fprintf(w, `{
					"items": [
						{"track": {"id": "t1", "name": "One", "artists": [{"name": "A"}], "album": {"name": "LP"}, "external_ids": {"isrc": "ISRC1"}}},
						{"is_local": true, "track": {"id": "local", "name": "Local", "is_local": true}},
						{"track": null}
					],
					"next": %q
				}`, page2URL)
				return
			}
			fmt.Fprint(w, `{
				"items": [
					{"track": {"id": "t2", "name": "Two", "artists": [{"name": "B"}, {"name": "C"}], "album": {"name": "LP2"}}}
				],
				"next": null
			}`)
		})

		svc, server := newTestSpotify(t, mux)
		page2URL = server.URL + "/playlists/pl1/tracks?offset=100"

		tracks, err := svc.GetPlaylistTracks(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("GetPlaylistTracks() error = %v", err)
		}

		if len(tracks) != 2 {
			t.Fatalf("len(tracks) = %d, want 2", len(tracks))
		}
		if tracks[0].ID != "t1" || tracks[0].ISRC != "ISRC1" || tracks[0].Artist != "A" {
			t.Errorf("tracks[0] = %+v", tracks[0])
		}
		if tracks[1].ID != "t2" || tracks[1].Artist != "B" {
			t.Errorf("tracks[1] = %+v, want primary artist B", tracks[1])
		}
		if tracks[0].Service != SpotifyName {
			t.Errorf("Service = %q, want %q", tracks[0].Service, SpotifyName)
		}
	})
}

func TestSpotifySearchByISRC(t *testing.T) {
	t.Run("Uses ISRC Filter Query", func(t *testing.T) {
		var gotQuery string
		svc, _ := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			fmt.Fprint(w, `{"tracks": {"items": [{"id": "t1", "name": "Hit", "artists": [{"name": "A"}]}]}}`)
		}))

		track, err := svc.SearchByISRC(context.Background(), "USUM71703861")
		if err != nil {
			t.Fatalf("SearchByISRC() error = %v", err)
		}
		if gotQuery != "isrc:USUM71703861" {
			t.Errorf("query = %q, want isrc filter", gotQuery)
		}
		if track == nil || track.ID != "t1" {
			t.Errorf("track = %+v", track)
		}
	})

	t.Run("No Hit Returns Nil Without Error", func(t *testing.T) {
		svc, _ := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"tracks": {"items": []}}`)
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

func TestSpotifyCreatePlaylist(t *testing.T) {
	t.Run("Creates Then Adds In Batches", func(t *testing.T) {
		var addBatches [][]string

		mux := http.NewServeMux()
		mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": "user1", "display_name": "User"}`)
		})
		mux.HandleFunc("/users/user1/playlists", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Name   string `json:"name"`
				Public bool   `json:"public"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if body.Public {
				t.Error("created playlist should be private")
			}
			fmt.Fprintf(w, `{"id": "new1", "name": %q, "owner": {"display_name": "User"}}`, body.Name)
		})
		mux.HandleFunc("/playlists/new1/tracks", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				URIs []string `json:"uris"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			addBatches = append(addBatches, body.URIs)
			fmt.Fprint(w, `{"snapshot_id": "snap"}`)
		})

		svc, _ := newTestSpotify(t, mux)

		trackIDs := make([]string, 250)
		for i := range trackIDs {
			trackIDs[i] = fmt.Sprintf("t%d", i)
		}

		playlist, err := svc.CreatePlaylist(context.Background(), "Mix", "desc", trackIDs)
		if err != nil {
			t.Fatalf("CreatePlaylist() error = %v", err)
		}

		if playlist.ID != "new1" || playlist.TrackCount != 250 {
			t.Errorf("playlist = %+v", playlist)
		}
		if len(addBatches) != 3 {
			t.Fatalf("add batches = %d, want 3", len(addBatches))
		}
		if len(addBatches[0]) != 100 || len(addBatches[1]) != 100 || len(addBatches[2]) != 50 {
			t.Errorf("batch sizes = %d/%d/%d, want 100/100/50",
				len(addBatches[0]), len(addBatches[1]), len(addBatches[2]))
		}
		if addBatches[0][0] != "spotify:track:t0" {
			t.Errorf("first URI = %q, want spotify:track:t0", addBatches[0][0])
		}
	})
}

func TestSpotifyFindPlaylistByName(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"items": [
				{"id": "p1", "name": "Road Trip", "owner": {"display_name": "User"}, "tracks": {"total": 3}},
				{"id": "p2", "name": "workout", "owner": {"display_name": "User"}, "tracks": {"total": 5}}
			],
			"next": null
		}`)
	})

	t.Run("Exact Match", func(t *testing.T) {
		svc, _ := newTestSpotify(t, handler)
		found, err := svc.FindPlaylistByName(context.Background(), "Road Trip")
		if err != nil {
			t.Fatalf("FindPlaylistByName() error = %v", err)
		}
		if found == nil || found.ID != "p1" {
			t.Errorf("found = %+v, want p1", found)
		}
	})

	t.Run("Case Sensitive", func(t *testing.T) {
		svc, _ := newTestSpotify(t, handler)
		found, err := svc.FindPlaylistByName(context.Background(), "Workout")
		if err != nil {
			t.Fatalf("FindPlaylistByName() error = %v", err)
		}
		if found != nil {
			t.Errorf("found = %+v, want nil for case mismatch", found)
		}
	})
}
