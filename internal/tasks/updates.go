package tasks

import (
	"fmt"

	"syncopate/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or TUI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Sync phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase enumerates the states of the sync state machine.
type Phase int

const (
	FetchingSource Phase = iota
	ResolvingDestination
	Matching
	Reconciling
	Done
	Failed
	BulkSync
)

func (p Phase) String() string {
	switch p {
	case FetchingSource:
		return "fetching_source"
	case ResolvingDestination:
		return "resolving_destination_playlist"
	case Matching:
		return "matching"
	case Reconciling:
		return "reconciling"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case BulkSync:
		return "bulk_sync"
	default:
		return ""
	}
}

func fetchingSourceUpdate(service string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching source playlist from %s...", service),
	}
}

func fetchedSourceUpdate(pl *models.Playlist, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", pl.Name, trackCount),
		Data:    pl,
	}
}

func resolvingDestinationUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvingDestination,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking for destination playlist '%s'...", name),
	}
}

func resolvedDestinationUpdate(existing *models.Playlist, name string) ProgressUpdate {
	if existing == nil {
		return ProgressUpdate{
			Phase:   ResolvingDestination,
			Step:    1,
			Total:   1,
			Message: fmt.Sprintf("No existing playlist found, will create '%s'", name),
		}
	}
	return ProgressUpdate{
		Phase:   ResolvingDestination,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Updating existing playlist: %s", existing.Name),
		Data:    existing,
	}
}

func matchingUpdate(processed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Matching,
		Step:    processed,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Matching tracks...", processed, total),
	}
}

func matchedTrackUpdate(result models.MatchResult, processed, total int) ProgressUpdate {
	var message string
	if result.Matched() {
		message = fmt.Sprintf("[%d/%d] ✓ %s - %s (%s, %.0f%%)",
			processed, total, result.Source.Artist, result.Source.Name, result.Method, result.Confidence)
	} else {
		message = fmt.Sprintf("[%d/%d] ✗ %s - %s", processed, total, result.Source.Artist, result.Source.Name)
	}
	return ProgressUpdate{
		Phase:   Matching,
		Step:    processed,
		Total:   total,
		Message: message,
		Data:    result,
	}
}

func reconcilingUpdate(mode models.SyncMode, matched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconciling,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d matched tracks (%s mode)...", matched, mode),
	}
}

func doneUpdate(result *models.SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync complete: %d/%d tracks", result.MatchedTracks, result.TotalTracks),
		Data:    result,
	}
}

func failedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync failed: %v", err),
	}
}

func bulkJobUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BulkSync,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Syncing: %s...", step, total, name),
	}
}

func bulkJobDoneUpdate(step, total int, name string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   BulkSync,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
		}
	}
	return ProgressUpdate{
		Phase:   BulkSync,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, name),
	}
}
