package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"curridata/internal/config"
	"curridata/internal/media"
	"curridata/internal/metrics"
)

// initialProgress distinguishes "started" from "not yet picked up".
const initialProgress = 10

// Store is the subset of job-row operations the runner needs. All writes
// are idempotent-by-field updates keyed by job_id; the database
// serializes writes to the same row.
type Store interface {
	StartDownloadJob(ctx context.Context, id uuid.UUID, progress int32) error
	UpdateDownloadJobProgress(ctx context.Context, id uuid.UUID, status string, progress int32) error
	CompleteDownloadJob(ctx context.Context, id uuid.UUID, finalFilepath string) error
	FailDownloadJob(ctx context.Context, id uuid.UUID, finalFilepath string) error
}

// Runner drives download jobs from PENDING to a terminal state. Each
// dispatched job runs in its own goroutine, bounded by a semaphore, and
// is never awaited by the submitting request.
type Runner struct {
	cfg     *config.Config
	store   Store
	fetcher media.Fetcher
	logger  *slog.Logger
	sem     chan struct{}
	wg      sync.WaitGroup
}

// NewRunner constructs a Runner with the given configuration, store and
// media fetcher.
func NewRunner(cfg *config.Config, st Store, fetcher media.Fetcher, logger *slog.Logger) *Runner {
	maxJobs := cfg.Downloads.MaxConcurrentJobs
	if maxJobs <= 0 {
		maxJobs = 4
	}
	return &Runner{
		cfg:     cfg,
		store:   st,
		fetcher: fetcher,
		logger:  logger,
		sem:     make(chan struct{}, maxJobs),
	}
}

// Dispatch schedules a submitted job for background execution and
// returns immediately. There is no cancellation handle: a dispatched job
// always runs to a terminal state, bounded by the configured maximum
// job duration.
func (r *Runner) Dispatch(jobID uuid.UUID, url, format string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.sem <- struct{}{}
		defer func() { <-r.sem }()
		r.run(jobID, url, format)
	}()
}

// Wait blocks until all dispatched jobs have reached a terminal state.
// Used by graceful shutdown and tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) maxJobDuration() time.Duration {
	minutes := r.cfg.Downloads.MaxJobDurationMinutes
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

func (r *Runner) run(jobID uuid.UUID, url, format string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.maxJobDuration())
	defer cancel()

	started := time.Now()

	scratchDir, err := os.MkdirTemp(r.cfg.Downloads.ScratchRoot, "dljob-")
	if err != nil {
		r.logError("scratch dir creation failed", "job_id", jobID.String(), "error", err)
		r.writeTerminal(jobID, func(ctx context.Context) error {
			return r.store.FailDownloadJob(ctx, jobID, FailedFilePath)
		})
		metrics.RecordJobFailed(format)
		return
	}

	finalPath, err := r.execute(ctx, jobID, url, format, scratchDir)
	if err != nil {
		r.logError("download job failed", "job_id", jobID.String(), "url", url, "error", err)
		r.writeTerminal(jobID, func(ctx context.Context) error {
			return r.store.FailDownloadJob(ctx, jobID, FailedFilePath)
		})
		// No retrieval will ever happen for a failed job, so the scratch
		// area is reclaimed here rather than by the file endpoint.
		if rmErr := os.RemoveAll(scratchDir); rmErr != nil {
			r.logError("scratch cleanup failed", "job_id", jobID.String(), "dir", scratchDir, "error", rmErr)
		}
		metrics.RecordJobFailed(format)
		return
	}

	r.writeTerminal(jobID, func(ctx context.Context) error {
		return r.store.CompleteDownloadJob(ctx, jobID, finalPath)
	})
	metrics.RecordJobCompleted(format, time.Since(started).Milliseconds())
	r.logInfo("download job completed", "job_id", jobID.String(), "file", finalPath)
}

// execute performs the fetch and returns the path of the produced file.
// Any error is fatal to the job and triggers the failure terminal write.
func (r *Runner) execute(ctx context.Context, jobID uuid.UUID, url, format, scratchDir string) (string, error) {
	if err := r.store.StartDownloadJob(ctx, jobID, initialProgress); err != nil {
		return "", fmt.Errorf("start job: %w", err)
	}

	// Predict the output filename from the source title before fetching.
	// Prediction is best effort; the scan below catches mismatches.
	title, err := r.fetcher.Probe(ctx, url)
	if err != nil {
		return "", fmt.Errorf("probe: %w", err)
	}
	base := SanitizeTitle(title)
	if base == "" {
		base = "download_file"
	}
	ext := "." + format
	predicted := filepath.Join(scratchDir, base+ext)

	// Progress is persisted on every callback but never regresses while
	// the job is processing: transfer progress occupies 0-90, a pinned 95
	// covers post-processing, 100 is written only by the terminal update.
	last := int32(initialProgress)
	hook := func(phase media.Phase, done, total int64) {
		progress := last
		switch phase {
		case media.PhaseDownloading:
			if total > 0 {
				progress = int32(done * 90 / total)
			}
		case media.PhaseFinished:
			progress = 95
		}
		if progress < last {
			progress = last
		}
		last = progress

		// Best effort: a failed progress write never fails the job.
		if err := r.store.UpdateDownloadJobProgress(ctx, jobID, string(StatusProcessing), progress); err != nil {
			r.logWarn("progress update failed", "job_id", jobID.String(), "error", err)
		}
	}

	err = r.fetcher.Fetch(ctx, media.Request{
		URL:        url,
		Format:     format,
		OutputPath: predicted,
		Progress:   hook,
	})
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}

	if _, statErr := os.Stat(predicted); statErr == nil {
		return predicted, nil
	}

	// The fetcher may have produced a differently named file; fall back
	// to scanning the scratch directory for the expected extension.
	if found := findByExtension(scratchDir, ext); found != "" {
		r.logWarn("predicted filename missed, using scan result",
			"job_id", jobID.String(), "predicted", predicted, "found", found)
		return found, nil
	}

	return "", errors.New("file generation failed: no output with expected extension")
}

// writeTerminal persists a terminal state transition. Unlike progress
// updates, a lost terminal write leaves the job stuck in PROCESSING
// forever, so it gets its own context and a bounded retry.
func (r *Runner) writeTerminal(jobID uuid.UUID, write func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backoff := retry.WithMaxRetries(4, retry.NewExponential(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := write(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		r.logError("terminal status write failed, job may appear stuck",
			"job_id", jobID.String(), "error", err)
	}
}

func (r *Runner) logInfo(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) logWarn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Runner) logError(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}
