package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Parses A Full Config", func(t *testing.T) {
		content := `
[credentials.spotify]
client_id = "spotify-client"
client_secret = "spotify-secret"
access_token = "spotify-token"

[credentials.apple]
team_id = "TEAM1"
key_id = "KEY1"
private_key_path = "/keys/AuthKey_KEY1.p8"
music_user_token = "user-token"
storefront = "gb"

[database]
path = "syncopate.db"
max_open_conns = 4

[sync]
default_mode = "update"

[[sync.jobs]]
source_playlist_id = "pl1"
playlist_name = "Road Trip"
mode = "create"
`
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}

		if config.Credentials.Spotify.AccessToken != "spotify-token" {
			t.Errorf("spotify access token = %q", config.Credentials.Spotify.AccessToken)
		}
		if config.Credentials.Apple.TeamID != "TEAM1" || config.Credentials.Apple.Storefront != "gb" {
			t.Errorf("apple credentials = %+v", config.Credentials.Apple)
		}
		if config.Database.Path != "syncopate.db" {
			t.Errorf("database path = %q", config.Database.Path)
		}
		if config.Sync.DefaultMode != "update" {
			t.Errorf("default mode = %q", config.Sync.DefaultMode)
		}
		if len(config.Sync.Jobs) != 1 || config.Sync.Jobs[0].SourcePlaylistID != "pl1" {
			t.Errorf("jobs = %+v", config.Sync.Jobs)
		}
	})

	t.Run("Missing File Is An Error", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("Malformed TOML Is An Error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Database.Path == "" {
		t.Error("embedded default config has no database path")
	}
	if config.Credentials.Apple.Storefront == "" {
		t.Error("embedded default config has no storefront")
	}
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("Writes The Example Config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("CreateConfigFile() error = %v", err)
		}
		if _, err := LoadConfig(path); err != nil {
			t.Errorf("written config does not parse: %v", err)
		}
	})

	t.Run("Refuses To Overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("existing"), 0644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Fatal("expected an error for an existing file")
		}
	})
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{1000, "0:01"},
		{61000, "1:01"},
		{354000, "5:54"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.ms); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}
