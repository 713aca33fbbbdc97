package tasks

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"syncopate/internal/models"
	"syncopate/internal/shared"
)

// BulkSyncOpts contains configuration for bulk playlist syncs.
type BulkSyncOpts struct {
	NumWorkers int          // Concurrent sync jobs (default: 3)
	RateLimit  float64      // Job dispatch rate per second (default: 1)
	Sync       SyncOptions  // Base options applied to every job
}

// JobResult records the outcome of a single playlist sync within a
// bulk run.
type JobResult struct {
	Job     shared.SyncJob     `json:"job"`
	Result  *models.SyncResult `json:"result,omitempty"`
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
}

// BulkSyncResult summarizes a bulk sync run.
type BulkSyncResult struct {
	TotalJobs int         `json:"total_jobs"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []JobResult `json:"results"`
}

// BulkSync runs multiple playlist sync jobs concurrently with rate
// limiting and progress tracking.
//
// Jobs are dispatched through a worker pool. Individual job failures
// are recorded in the result rather than aborting the run.
func (e *SyncEngine) BulkSync(ctx context.Context, prog chan<- ProgressUpdate, jobs []shared.SyncJob, opts BulkSyncOpts) (*BulkSyncResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	result := &BulkSyncResult{
		TotalJobs: len(jobs),
		Results:   make([]JobResult, 0, len(jobs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	queue := make(chan shared.SyncJob, len(jobs))
	outcomes := make(chan JobResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.syncWorker(ctx, &wg, queue, outcomes, opts.Sync)
	}

	go func() {
		defer close(queue)
		for i, job := range jobs {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, bulkJobUpdate(i+1, len(jobs), job.SourcePlaylistID))
			queue <- job
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	for outcome := range outcomes {
		completed++
		result.Results = append(result.Results, outcome)

		if outcome.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}

		var err error
		if outcome.Error != "" {
			err = errorString(outcome.Error)
		}
		e.sendProgress(prog, bulkJobDoneUpdate(completed, len(jobs), outcome.Job.SourcePlaylistID, err))
	}

	e.logger.Info("Bulk sync complete",
		"total", result.TotalJobs,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	return result, nil
}

func (e *SyncEngine) syncWorker(ctx context.Context, wg *sync.WaitGroup, queue <-chan shared.SyncJob, outcomes chan<- JobResult, base SyncOptions) {
	defer wg.Done()

	for job := range queue {
		opts := base
		if job.Mode != "" {
			opts.Mode = models.SyncMode(job.Mode)
		}
		if job.PlaylistName != "" {
			opts.PlaylistName = job.PlaylistName
		}

		syncResult, err := e.SyncPlaylist(ctx, nil, job.SourcePlaylistID, opts)
		outcome := JobResult{
			Job:     job,
			Result:  syncResult,
			Success: err == nil,
		}
		if err != nil {
			outcome.Error = err.Error()
		}
		outcomes <- outcome
	}
}

// errorString adapts a stored error message back into an error for
// progress display.
type errorString string

func (s errorString) Error() string { return string(s) }
