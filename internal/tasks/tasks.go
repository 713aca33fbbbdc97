// Package tasks orchestrates playlist synchronization between two
// music services: fetching the source playlist, matching its tracks
// against the destination catalog, and reconciling the results into a
// new or existing destination playlist.
package tasks

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"syncopate/internal/matcher"
	"syncopate/internal/models"
	"syncopate/internal/services"
	"syncopate/internal/shared"
)

// Tracks are matched in concurrent batches of this size.
const matchBatchSize = 5

// Inter-batch pacing. Apple Music tolerates less burst than Spotify.
const (
	appleMusicBatchDelay = 200 * time.Millisecond
	defaultBatchDelay    = 100 * time.Millisecond
)

// ProgressFunc is invoked after each matching batch with the overall
// completion percentage and track counts.
type ProgressFunc func(percent, processed, total int)

// SyncOptions control a single sync run.
type SyncOptions struct {
	Mode         models.SyncMode // create or update (default create)
	PlaylistName string          // Destination playlist name override
	Description  string          // Destination playlist description override
	OnProgress   ProgressFunc    // Optional matching progress callback
}

// SyncCapabilities describes what a source/destination pair supports,
// merged from both adapters (minimum of the per-service limits).
type SyncCapabilities struct {
	CanSync           bool `json:"can_sync"`
	SupportsISRC      bool `json:"supports_isrc"`
	MaxPlaylistTracks int  `json:"max_playlist_tracks"`
	BatchSize         int  `json:"batch_size"`
}

// ValidationResult reports whether a sync run is feasible before any
// matching work happens.
type ValidationResult struct {
	Valid          bool             `json:"valid"`
	Reason         string           `json:"reason,omitempty"`
	SourcePlaylist *models.Playlist `json:"source_playlist,omitempty"`
	Capabilities   SyncCapabilities `json:"capabilities"`
}

// PlaylistInventory holds the user's playlists on both services.
type PlaylistInventory struct {
	SourceService      string            `json:"source_service"`
	Source             []models.Playlist `json:"source"`
	DestinationService string            `json:"destination_service"`
	Destination        []models.Playlist `json:"destination"`
}

// SyncEngine drives playlist sync runs from a source service to a
// destination service.
type SyncEngine struct {
	source      services.Service
	destination services.Service
	matcher     *matcher.Matcher
	logger      *log.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSyncEngine creates a sync engine for the given service pair.
func NewSyncEngine(source, destination services.Service, logger *log.Logger) *SyncEngine {
	return &SyncEngine{
		source:      source,
		destination: destination,
		matcher:     matcher.New(destination, logger),
		logger:      logger,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SyncPlaylist runs a full sync of one source playlist into the
// destination service. Progress updates are sent to prog (may be nil);
// sends never block. The returned SyncResult is non-nil even on
// failure and records any errors encountered.
func (e *SyncEngine) SyncPlaylist(ctx context.Context, prog chan<- ProgressUpdate, sourcePlaylistID string, opts SyncOptions) (*models.SyncResult, error) {
	mode := opts.Mode
	if mode == "" {
		mode = models.SyncCreate
	}

	result := &models.SyncResult{
		RunID:              shared.GenerateID(),
		SourceService:      e.source.Name(),
		DestinationService: e.destination.Name(),
		Mode:               mode,
		StartedAt:          e.now(),
		UnmatchedTracks:    []models.UnmatchedTrack{},
		Errors:             []string{},
	}

	fail := func(err error) (*models.SyncResult, error) {
		result.Errors = append(result.Errors, err.Error())
		result.Finish(e.now())
		e.sendProgress(prog, failedUpdate(err))
		e.logger.Error("Sync failed", "run_id", result.RunID, "error", err)
		return result, err
	}

	// Fetch source playlist and its tracks.
	e.sendProgress(prog, fetchingSourceUpdate(e.source.Name()))

	sourcePlaylist, err := e.source.GetPlaylistDetails(ctx, sourcePlaylistID)
	if err != nil {
		return fail(fmt.Errorf("fetching source playlist: %w", err))
	}

	tracks, err := e.source.GetPlaylistTracks(ctx, sourcePlaylistID)
	if err != nil {
		return fail(fmt.Errorf("fetching source tracks: %w", err))
	}

	result.SourcePlaylist = sourcePlaylist
	result.TotalTracks = len(tracks)
	e.sendProgress(prog, fetchedSourceUpdate(sourcePlaylist, len(tracks)))

	e.logger.Info("Starting sync",
		"run_id", result.RunID,
		"playlist", sourcePlaylist.Name,
		"tracks", len(tracks),
		"mode", mode)

	// Empty source playlists complete without touching the destination.
	if len(tracks) == 0 {
		result.Finish(e.now())
		e.sendProgress(prog, doneUpdate(result))
		return result, nil
	}

	// Resolve the destination playlist.
	requestedName := opts.PlaylistName
	if requestedName == "" {
		requestedName = sourcePlaylist.Name
	}

	var existing *models.Playlist
	destinationName := requestedName

	if mode == models.SyncUpdate {
		e.sendProgress(prog, resolvingDestinationUpdate(requestedName))

		existing, err = e.destination.FindPlaylistByName(ctx, requestedName)
		if err != nil {
			return fail(fmt.Errorf("resolving destination playlist: %w", err))
		}
		if existing == nil {
			// The playlist may have been created by an earlier run
			// under the requested name with the service suffix.
			suffixed := e.defaultPlaylistName(requestedName)
			existing, err = e.destination.FindPlaylistByName(ctx, suffixed)
			if err != nil {
				return fail(fmt.Errorf("resolving destination playlist: %w", err))
			}
		}

		if existing != nil {
			destinationName = existing.Name
		} else {
			// Nothing to update, fall back to creating under the
			// plain requested name.
			result.Mode = models.SyncCreate
		}
		e.sendProgress(prog, resolvedDestinationUpdate(existing, destinationName))
	} else if opts.PlaylistName == "" {
		destinationName = e.defaultPlaylistName(sourcePlaylist.Name)
	}

	// Match every source track against the destination catalog.
	matches := e.matchAll(ctx, prog, tracks, opts.OnProgress)

	matchedIDs := make([]string, 0, len(matches))
	for _, match := range matches {
		if match.Matched() {
			matchedIDs = append(matchedIDs, match.Destination.ID)
			continue
		}
		result.UnmatchedTracks = append(result.UnmatchedTracks, models.UnmatchedTrack{
			Name:   match.Source.Name,
			Artist: match.Source.Artist,
			Album:  match.Source.Album,
		})
	}
	result.MatchedTracks = len(matchedIDs)

	// Reconcile: write matched tracks to the destination.
	if len(matchedIDs) > 0 {
		e.sendProgress(prog, reconcilingUpdate(result.Mode, len(matchedIDs)))

		if existing != nil {
			added, destPlaylist, err := e.updatePlaylist(ctx, existing, matchedIDs)
			if err != nil {
				return fail(fmt.Errorf("updating destination playlist: %w", err))
			}
			result.DestinationPlaylist = destPlaylist
			result.MatchedTracks = added
		} else {
			description := opts.Description
			if description == "" {
				description = fmt.Sprintf("Synced from %s on %s", e.source.Name(), e.now().Format("2006-01-02"))
			}
			destPlaylist, err := e.destination.CreatePlaylist(ctx, destinationName, description, matchedIDs)
			if err != nil {
				return fail(fmt.Errorf("creating destination playlist: %w", err))
			}
			result.DestinationPlaylist = destPlaylist
		}
	}

	result.Finish(e.now())
	e.sendProgress(prog, doneUpdate(result))

	e.logger.Info("Sync complete",
		"run_id", result.RunID,
		"matched", result.MatchedTracks,
		"unmatched", len(result.UnmatchedTracks),
		"duration", result.Duration)

	return result, nil
}

// matchAll matches tracks in concurrent batches, preserving source
// order in the returned slice. Pacing delays run between batches only.
func (e *SyncEngine) matchAll(ctx context.Context, prog chan<- ProgressUpdate, tracks []models.Track, onProgress ProgressFunc) []models.MatchResult {
	results := make([]models.MatchResult, len(tracks))
	total := len(tracks)

	for start := 0; start < total; start += matchBatchSize {
		end := start + matchBatchSize
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = e.matcher.Match(ctx, tracks[i])
			}(i)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			e.sendProgress(prog, matchedTrackUpdate(results[i], i+1, total))
		}

		processed := end
		if onProgress != nil {
			percent := int(math.Round(float64(processed) / float64(total) * 100))
			onProgress(percent, processed, total)
		}
		e.sendProgress(prog, matchingUpdate(processed, total))

		if end < total {
			if err := e.sleep(ctx, e.batchDelay()); err != nil {
				// Cancelled between batches: report the remaining
				// tracks as unmatched instead of zero values.
				for i := end; i < total; i++ {
					results[i] = models.MatchResult{Source: tracks[i], Method: models.MatchNone}
				}
				return results
			}
		}
	}

	return results
}

func (e *SyncEngine) batchDelay() time.Duration {
	if e.destination.Name() == services.AppleMusicName {
		return appleMusicBatchDelay
	}
	return defaultBatchDelay
}

// updatePlaylist adds only the matched tracks not already present in
// the existing destination playlist. Returns the number of tracks
// actually added.
func (e *SyncEngine) updatePlaylist(ctx context.Context, existing *models.Playlist, matchedIDs []string) (int, *models.Playlist, error) {
	existingTracks, err := e.destination.GetPlaylistTracks(ctx, existing.ID)
	if err != nil {
		return 0, nil, err
	}

	present := make(map[string]struct{}, len(existingTracks))
	for _, track := range existingTracks {
		present[track.ID] = struct{}{}
	}

	newIDs := make([]string, 0, len(matchedIDs))
	for _, id := range matchedIDs {
		if _, ok := present[id]; !ok {
			newIDs = append(newIDs, id)
		}
	}

	if len(newIDs) == 0 {
		e.logger.Info("Playlist already up to date", "playlist", existing.Name)
		return 0, existing, nil
	}

	updated, err := e.destination.AddTracksToPlaylist(ctx, existing.ID, newIDs)
	if err != nil {
		return 0, nil, err
	}
	return len(newIDs), updated, nil
}

func (e *SyncEngine) defaultPlaylistName(sourceName string) string {
	return fmt.Sprintf("%s (from %s)", sourceName, e.source.Name())
}

// ValidateSync checks whether a sync of the given source playlist is
// feasible without running it. Infeasibility is reported in the
// result, not as an error.
func (e *SyncEngine) ValidateSync(ctx context.Context, sourcePlaylistID string) (*ValidationResult, error) {
	caps := e.SyncCapabilities()
	result := &ValidationResult{Capabilities: caps}

	if !caps.CanSync {
		result.Reason = fmt.Sprintf("%s does not support playlist creation", e.destination.Name())
		return result, nil
	}

	playlist, err := e.source.GetPlaylistDetails(ctx, sourcePlaylistID)
	if err != nil {
		result.Reason = fmt.Sprintf("source playlist lookup failed: %v", err)
		return result, nil
	}
	result.SourcePlaylist = playlist

	if playlist.TrackCount > caps.MaxPlaylistTracks {
		result.Reason = fmt.Sprintf("playlist has %d tracks, destination limit is %d",
			playlist.TrackCount, caps.MaxPlaylistTracks)
		return result, nil
	}

	result.Valid = true
	return result, nil
}

// SyncCapabilities merges the capabilities of both services, taking
// the minimum of the per-service limits.
func (e *SyncEngine) SyncCapabilities() SyncCapabilities {
	src := e.source.Capabilities()
	dst := e.destination.Capabilities()

	return SyncCapabilities{
		CanSync:           dst.CanCreatePlaylists,
		SupportsISRC:      src.SupportsISRC && dst.SupportsISRC,
		MaxPlaylistTracks: minInt(src.MaxPlaylistTracks, dst.MaxPlaylistTracks),
		BatchSize:         minInt(src.BatchSize, dst.BatchSize),
	}
}

// UserPlaylists fetches the user's playlists on both services.
func (e *SyncEngine) UserPlaylists(ctx context.Context) (*PlaylistInventory, error) {
	source, err := e.source.GetUserPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s playlists: %w", e.source.Name(), err)
	}

	destination, err := e.destination.GetUserPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s playlists: %w", e.destination.Name(), err)
	}

	return &PlaylistInventory{
		SourceService:      e.source.Name(),
		Source:             source,
		DestinationService: e.destination.Name(),
		Destination:        destination,
	}, nil
}

// sendProgress sends an update without blocking. Updates are dropped
// if the channel is full or nil.
func (e *SyncEngine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
		if !strings.HasPrefix(update.Message, "[") {
			e.logger.Debug("Dropped progress update", "phase", update.Phase.String())
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
