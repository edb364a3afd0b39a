package jobs

import (
	"context"
	"log/slog"
	"time"

	"curridata/internal/config"
	"curridata/internal/metrics"
)

// RetentionStore is the subset of store operations the janitor needs.
type RetentionStore interface {
	DeleteExpiredDownloadJobs(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartRetention launches a background janitor that periodically deletes
// terminal download-job rows older than the configured TTL, so the jobs
// table does not grow without bound. The pipeline itself never deletes
// rows. No-op when retention is disabled.
func StartRetention(ctx context.Context, cfg *config.Config, st RetentionStore, logger *slog.Logger) {
	if !cfg.Retention.Enabled || cfg.Retention.JobDays <= 0 {
		return
	}

	interval := time.Duration(cfg.Retention.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			cutoff := time.Now().UTC().AddDate(0, 0, -cfg.Retention.JobDays)
			n, err := st.DeleteExpiredDownloadJobs(ctx, cutoff)
			if err != nil {
				if logger != nil {
					logger.Warn("retention cleanup failed", "error", err)
				}
				continue
			}
			if n > 0 {
				metrics.RecordRetentionJobs(n)
				if logger != nil {
					logger.Info("retention cleanup", "jobs_deleted", n)
				}
			}
		}
	}()
}
