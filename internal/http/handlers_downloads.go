package http

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"unicode"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"curridata/internal/jobs"
	"curridata/internal/metrics"
	"curridata/internal/store"
)

// submitDownloadHandler validates a download request, records the
// PENDING job row and schedules the background runner. The response
// never waits for the download itself.
func submitDownloadHandler(c *fiber.Ctx) error {
	var reqBody DownloadRequest
	if err := c.BodyParser(&reqBody); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	if reqBody.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required field 'url'",
		})
	}
	if !jobs.Formats[reqBody.Format] {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Invalid format; expected 'mp3' or 'mp4'",
		})
	}

	jst := c.Locals("jobs").(DownloadJobStore)
	dispatcher := c.Locals("dispatcher").(Dispatcher)

	// Prefer uuidv7 when available for time-ordered job ids.
	jobID := func() uuid.UUID {
		if id, err := uuid.NewV7(); err == nil {
			return id
		}
		return uuid.New()
	}()

	if err := jst.CreateDownloadJob(c.Context(), jobID, clientIP(c), reqBody.URL, reqBody.Format); err != nil {
		// No row means no job: nothing was submitted.
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "SUBMIT_FAILED",
			Error:   fmt.Sprintf("failed to record download job: %v", err),
		})
	}

	dispatcher.Dispatch(jobID, reqBody.URL, reqBody.Format)
	metrics.RecordJobSubmitted(reqBody.Format)

	return c.Status(fiber.StatusOK).JSON(SubmitDownloadResponse{
		Success: true,
		JobID:   jobID.String(),
	})
}

// downloadStatusHandler reports the latest persisted status and progress
// for a job. It never blocks on the runner.
func downloadStatusHandler(c *fiber.Ctx) error {
	jst := c.Locals("jobs").(DownloadJobStore)

	// An unparsable id cannot name an existing job.
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(DownloadStatusResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "job not found",
		})
	}

	job, err := jst.GetDownloadJob(c.Context(), jobID)
	if err != nil {
		if store.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(DownloadStatusResponse{
				Success: false,
				Code:    "NOT_FOUND",
				Error:   "job not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(DownloadStatusResponse{
			Success: false,
			Code:    "STATUS_LOOKUP_FAILED",
			Error:   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(DownloadStatusResponse{
		Success:  true,
		Status:   job.Status,
		Progress: job.Progress,
	})
}

// downloadFileHandler streams the result file of a COMPLETED job and
// removes it (and, if then empty, its scratch directory) once the
// transfer finishes. A file is delivered at most once.
func downloadFileHandler(c *fiber.Ctx) error {
	jst := c.Locals("jobs").(DownloadJobStore)

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "job not found",
		})
	}

	job, err := jst.GetDownloadJob(c.Context(), jobID)
	if err != nil {
		if store.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Success: false,
				Code:    "NOT_FOUND",
				Error:   "job not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "FILE_LOOKUP_FAILED",
			Error:   err.Error(),
		})
	}

	// A failed job will never have a file; that is a terminal not-found,
	// not a "poll again later" condition.
	if job.Status == string(jobs.StatusFailed) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "job failed, no file is available",
		})
	}

	if job.Status != string(jobs.StatusCompleted) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_READY",
			Error:   fmt.Sprintf("file not ready, current status: %s", job.Status),
		})
	}

	if !job.FinalFilepath.Valid || job.FinalFilepath.String == jobs.FailedFilePath {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "job completed but no usable file was recorded",
		})
	}

	filePath := job.FinalFilepath.String
	info, err := os.Stat(filePath)
	if err != nil {
		// Already consumed by a previous retrieval, or the scratch area
		// was cleared externally.
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "file no longer exists on the server",
		})
	}

	f, err := os.Open(filePath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "FILE_OPEN_FAILED",
			Error:   err.Error(),
		})
	}

	var logger *slog.Logger
	if val := c.Locals("logger"); val != nil {
		logger, _ = val.(*slog.Logger)
	}

	c.Set(fiber.HeaderContentType, "application/octet-stream")
	c.Set(fiber.HeaderContentDisposition, contentDisposition(filepath.Base(filePath)))
	c.Response().SetBodyStream(&cleanupFile{File: f, logger: logger}, int(info.Size()))

	return nil
}

// cleanupFile wraps the result file stream. The HTTP layer closes the
// stream once the transfer completes or the client aborts; Close then
// removes the file and, if empty afterwards, its scratch directory.
type cleanupFile struct {
	*os.File
	logger *slog.Logger
}

func (f *cleanupFile) Close() error {
	path := f.Name()
	err := f.File.Close()

	if rmErr := os.Remove(path); rmErr == nil {
		// Counted here, not when the handler returns, so a transfer that
		// never ran the stream is not reported as a delivery.
		metrics.RecordFileDelivered()
		if f.logger != nil {
			f.logger.Info("deleted delivered file", "path", path)
		}
		// Remove on a directory only succeeds when it is empty, so
		// unexpected sibling files are left untouched.
		_ = os.Remove(filepath.Dir(path))
	} else if f.logger != nil {
		f.logger.Warn("failed to delete delivered file", "path", path, "error", rmErr)
	}

	return err
}

// contentDisposition builds an attachment header with an ASCII-safe
// fallback filename plus the RFC 5987 UTF-8 form, so non-ASCII titles
// survive in browsers that support it. Fallback-scan filenames are not
// sanitized, so the quoted form escapes quote and backslash characters.
func contentDisposition(filename string) string {
	ascii := make([]rune, 0, len(filename))
	for _, r := range filename {
		switch {
		case r > unicode.MaxASCII:
			ascii = append(ascii, '?')
		case r == '"' || r == '\\':
			ascii = append(ascii, '\\', r)
		default:
			ascii = append(ascii, r)
		}
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=utf-8''%s`,
		string(ascii), url.PathEscape(filename))
}
