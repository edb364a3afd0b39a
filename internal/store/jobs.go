package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DownloadJob is one row in the download_jobs table. It tracks a single
// download-and-convert request from submission to terminal outcome.
type DownloadJob struct {
	JobID         uuid.UUID
	ClientIP      string
	URL           string
	Format        string
	Status        string
	Progress      int32
	FinalFilepath sql.NullString
	StartTime     sql.NullTime
	EndTime       sql.NullTime
	CreatedAt     time.Time
}

const downloadJobColumns = `job_id, client_ip, url, format, status, progress, final_filepath, start_time, end_time, created_at`

func scanDownloadJob(row *sql.Row) (DownloadJob, error) {
	var j DownloadJob
	err := row.Scan(&j.JobID, &j.ClientIP, &j.URL, &j.Format, &j.Status,
		&j.Progress, &j.FinalFilepath, &j.StartTime, &j.EndTime, &j.CreatedAt)
	return j, err
}

// CreateDownloadJob inserts the initial PENDING row for a freshly
// submitted job. A duplicate job_id surfaces as a unique violation.
func (s *Store) CreateDownloadJob(ctx context.Context, id uuid.UUID, clientIP, url, format string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO download_jobs (job_id, client_ip, url, format, status, progress)
		VALUES ($1, $2, $3, $4, 'PENDING', 0)`,
		id, clientIP, url, format)
	return err
}

// GetDownloadJob fetches a job by id. Returns sql.ErrNoRows when absent.
func (s *Store) GetDownloadJob(ctx context.Context, id uuid.UUID) (DownloadJob, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT `+downloadJobColumns+` FROM download_jobs WHERE job_id = $1`, id)
	return scanDownloadJob(row)
}

// StartDownloadJob marks a job as PROCESSING, records its start time and
// sets the initial progress value.
func (s *Store) StartDownloadJob(ctx context.Context, id uuid.UUID, progress int32) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE download_jobs SET status = 'PROCESSING', progress = $2, start_time = $3
		WHERE job_id = $1`,
		id, progress, time.Now().UTC())
	return err
}

// UpdateDownloadJobProgress writes a progress snapshot for a running job.
// Callers treat failures as best-effort.
func (s *Store) UpdateDownloadJobProgress(ctx context.Context, id uuid.UUID, status string, progress int32) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE download_jobs SET status = $2, progress = $3 WHERE job_id = $1`,
		id, status, progress)
	return err
}

// CompleteDownloadJob performs the successful terminal write.
func (s *Store) CompleteDownloadJob(ctx context.Context, id uuid.UUID, finalFilepath string) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE download_jobs SET status = 'COMPLETED', progress = 100,
			final_filepath = $2, end_time = $3
		WHERE job_id = $1`,
		id, finalFilepath, time.Now().UTC())
	return err
}

// FailDownloadJob performs the failure terminal write. finalFilepath is
// expected to be the failure sentinel, never a real path.
func (s *Store) FailDownloadJob(ctx context.Context, id uuid.UUID, finalFilepath string) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE download_jobs SET status = 'FAILED', progress = 0,
			final_filepath = $2, end_time = $3
		WHERE job_id = $1`,
		id, finalFilepath, time.Now().UTC())
	return err
}

// DeleteExpiredDownloadJobs removes terminal job rows older than the
// cutoff. Used by the retention janitor, never by the pipeline itself.
func (s *Store) DeleteExpiredDownloadJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM download_jobs
		WHERE status IN ('COMPLETED', 'FAILED') AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
