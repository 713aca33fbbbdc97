package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig    `toml:"spotify"`
	Apple   AppleMusicConfig `toml:"apple"`
}

// SpotifyConfig contains Spotify API credentials. AccessToken, when set,
// is treated as pre-validated; the application never refreshes it.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
}

// AppleMusicConfig contains Apple Music API credentials: the developer-token
// signing key identity and the user token obtained via MusicKit.
type AppleMusicConfig struct {
	TeamID         string `toml:"team_id"`
	KeyID          string `toml:"key_id"`
	PrivateKeyPath string `toml:"private_key_path"`
	MusicUserToken string `toml:"music_user_token"`
	Storefront     string `toml:"storefront"`
}

// DatabaseConfig contains session store settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig contains sync defaults and the job list consumed by `sync all`.
type SyncConfig struct {
	DefaultMode string    `toml:"default_mode"`
	Jobs        []SyncJob `toml:"jobs"`
}

// SyncJob describes one configured playlist sync for the bulk runner.
type SyncJob struct {
	SourcePlaylistID string `toml:"source_playlist_id"`
	PlaylistName     string `toml:"playlist_name"`
	Mode             string `toml:"mode"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
