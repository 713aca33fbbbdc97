package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"syncopate/internal/formatter"
	"syncopate/internal/models"
	"syncopate/internal/repositories"
	"syncopate/internal/services"
	"syncopate/internal/shared"
	"syncopate/internal/tasks"
)

// Setup creates the config file if missing and initializes the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		r.writePlain("Config: %v\n", err)
	} else {
		r.writePlain("Created %s\n", configPath)
	}

	if r.db == nil {
		return fmt.Errorf("%w: no database configured", shared.ErrMissingConfig)
	}

	r.writePlain("Database ready: %s\n", r.config.Database.Path)
	r.writePlain("\nNext steps:\n")
	r.writePlain("  1. Fill in credentials in %s\n", configPath)
	r.writePlain("  2. Run 'syncopate connect spotify --access-token <token>'\n")
	r.writePlain("  3. Run 'syncopate connect apple --user-token <token>'\n")
	return nil
}

// Connect stores credentials for one service in the session store.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	if r.sessions == nil {
		return fmt.Errorf("%w: run 'setup' first", shared.ErrMissingConfig)
	}

	switch cmd.StringArg("service") {
	case "spotify":
		token := cmd.String("access-token")
		if token == "" {
			return fmt.Errorf("%w: --access-token is required for Spotify", shared.ErrMissingCredentials)
		}
		session := &repositories.Session{Service: services.SpotifyName, AccessToken: token}
		if err := r.sessions.Save(session); err != nil {
			return err
		}
		r.writePlain("Stored Spotify session.\n")

	case "apple":
		userToken := cmd.String("user-token")
		if userToken == "" {
			return fmt.Errorf("%w: --user-token is required for Apple Music", shared.ErrMissingCredentials)
		}
		storefront := cmd.String("storefront")
		if storefront == "" {
			storefront = r.config.Credentials.Apple.Storefront
		}
		session := &repositories.Session{
			Service:    services.AppleMusicName,
			UserToken:  userToken,
			Storefront: storefront,
		}
		if err := r.sessions.Save(session); err != nil {
			return err
		}
		r.writePlain("Stored Apple Music session.\n")

	default:
		return fmt.Errorf("%w: connect expects 'spotify' or 'apple'", shared.ErrValidation)
	}

	return nil
}

// Playlists lists the user's playlists on both services.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	engine, source, destination, err := r.engineFor(cmd.String("from"))
	if err != nil {
		return err
	}

	inventory, err := engine.UserPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(inventory, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s Playlists", source.Name()))
	r.writePlain("%s", formatter.PlaylistsToText(inventory.Source))
	r.writePlainln("")
	r.writePlainHeader(fmt.Sprintf("%s Playlists", destination.Name()))
	r.writePlain("%s", formatter.PlaylistsToText(inventory.Destination))
	return nil
}

// Sync runs one playlist sync.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	engine, source, destination, err := r.engineFor(cmd.String("from"))
	if err != nil {
		return err
	}

	playlistID := cmd.String("id")
	opts := tasks.SyncOptions{
		Mode:         r.syncMode(cmd.String("mode")),
		PlaylistName: cmd.String("name"),
		Description:  cmd.String("description"),
	}

	r.logger.Info("starting sync", "playlist", playlistID, "from", source.Name(), "to", destination.Name())
	r.writePlain("Syncing playlist %s: %s -> %s\n\n", playlistID, source.Name(), destination.Name())

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchingSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ResolvingDestination:
				r.writePlain("🔎 %s\n", update.Message)
			case tasks.Matching:
				r.writePlain("   %s\n", update.Message)
			case tasks.Reconciling:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := engine.SyncPlaylist(ctx, progressCh, playlistID, opts)
	close(progressCh)
	wg.Wait()

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete!")
	r.writePlain("%s", formatter.ReportToText(result))

	if format := cmd.String("report"); format != "" {
		path, err := formatter.WriteReport(result, "", format)
		if err != nil {
			return err
		}
		r.writePlain("\nReport written to %s\n", path)
	}

	return nil
}

// SyncAll runs every configured sync job through the bulk runner.
func (r *Runner) SyncAll(ctx context.Context, cmd *cli.Command) error {
	engine, _, _, err := r.engineFor(cmd.String("from"))
	if err != nil {
		return err
	}

	jobs := r.config.Sync.Jobs
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no [[sync.jobs]] configured", shared.ErrMissingConfig)
	}

	r.writePlain("Running %d sync jobs...\n\n", len(jobs))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.BulkSync(ctx, progressCh, jobs, tasks.BulkSyncOpts{
		NumWorkers: int(cmd.Int("workers")),
		Sync:       tasks.SyncOptions{Mode: r.syncMode("")},
	})
	close(progressCh)
	wg.Wait()

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Bulk Sync Complete")
	r.writePlain("Jobs: %d total, %d succeeded, %d failed\n", result.TotalJobs, result.Succeeded, result.Failed)
	for _, outcome := range result.Results {
		status := "✓"
		if !outcome.Success {
			status = "✗"
		}
		r.writePlain("  %s %s", status, outcome.Job.SourcePlaylistID)
		if outcome.Error != "" {
			r.writePlain(" (%s)", outcome.Error)
		}
		r.writePlain("\n")
	}

	return nil
}

// Validate checks sync feasibility for one playlist.
func (r *Runner) Validate(ctx context.Context, cmd *cli.Command) error {
	engine, _, _, err := r.engineFor(cmd.String("from"))
	if err != nil {
		return err
	}

	result, err := engine.ValidateSync(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if result.Valid {
		r.writePlain("✓ Sync is feasible")
		if result.SourcePlaylist != nil {
			r.writePlain(": %s (%d tracks)", result.SourcePlaylist.Name, result.SourcePlaylist.TrackCount)
		}
		r.writePlain("\n")
	} else {
		r.writePlain("✗ Sync is not feasible: %s\n", result.Reason)
	}

	r.writePlain("\nCapabilities: ISRC=%t, max tracks=%d, batch size=%d\n",
		result.Capabilities.SupportsISRC,
		result.Capabilities.MaxPlaylistTracks,
		result.Capabilities.BatchSize)

	return nil
}

func (r *Runner) syncMode(flag string) models.SyncMode {
	switch flag {
	case "create":
		return models.SyncCreate
	case "update":
		return models.SyncUpdate
	case "":
		if r.config.Sync.DefaultMode == string(models.SyncUpdate) {
			return models.SyncUpdate
		}
		return models.SyncCreate
	default:
		return models.SyncCreate
	}
}
