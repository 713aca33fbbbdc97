package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"syncopate/internal/repositories"
	"syncopate/internal/services"
	"syncopate/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	db := openDatabase(config, logger)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: buildSpotify(config, db, logger),
		Apple:   buildAppleMusic(config, db, logger),
		Logger:  logger,
		DB:      db,
	})

	app := &cli.Command{
		Name:     "syncopate",
		Usage:    "Sync playlists between Spotify & Apple Music",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// openDatabase opens the session database and runs migrations. A database
// failure degrades gracefully; commands that need it report ErrMissingConfig.
func openDatabase(config *shared.Config, logger *log.Logger) *sql.DB {
	path := config.Database.Path
	if path == "" {
		path = "syncopate.db"
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		logger.Warn("database unavailable", "path", path, "error", err)
		return nil
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := repositories.Migrate(db); err != nil {
		logger.Warn("database migration failed", "error", err)
		db.Close()
		return nil
	}

	return db
}

// buildSpotify constructs the Spotify adapter from the stored session,
// falling back to the config access token. Returns nil when not connected.
func buildSpotify(config *shared.Config, db *sql.DB, logger *log.Logger) services.Service {
	accessToken := config.Credentials.Spotify.AccessToken

	if db != nil {
		sessions := repositories.NewSessionRepository(db)
		if session, err := sessions.Get(services.SpotifyName); err == nil && session.AccessToken != "" {
			accessToken = session.AccessToken
		}
	}

	svc, err := services.NewSpotifyService(accessToken)
	if err != nil {
		logger.Debug("Spotify not connected", "error", err)
		return nil
	}
	return svc
}

// buildAppleMusic constructs the Apple Music adapter: an ES256 developer
// token source from the configured signing key plus the stored user token.
// Returns nil when not connected.
func buildAppleMusic(config *shared.Config, db *sql.DB, logger *log.Logger) services.Service {
	apple := config.Credentials.Apple

	userToken := apple.MusicUserToken
	storefront := apple.Storefront

	if db != nil {
		sessions := repositories.NewSessionRepository(db)
		if session, err := sessions.Get(services.AppleMusicName); err == nil {
			if session.UserToken != "" {
				userToken = session.UserToken
			}
			if session.Storefront != "" {
				storefront = session.Storefront
			}
		}
	}

	if apple.PrivateKeyPath == "" {
		logger.Debug("Apple Music not connected: no signing key configured")
		return nil
	}
	pemKey, err := os.ReadFile(apple.PrivateKeyPath)
	if err != nil {
		logger.Debug("Apple Music not connected", "error", err)
		return nil
	}

	tokens, err := services.NewES256TokenSource(apple.TeamID, apple.KeyID, pemKey, 0)
	if err != nil {
		logger.Debug("Apple Music not connected", "error", err)
		return nil
	}

	svc, err := services.NewAppleMusicService(tokens, userToken, storefront)
	if err != nil {
		logger.Debug("Apple Music not connected", "error", err)
		return nil
	}
	return svc
}
