package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"curridata/internal/jobs"
	"curridata/internal/metrics"
	"curridata/internal/store"
)

type fakeJobStore struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]store.DownloadJob
	createErr   error
	createCalls int
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{rows: make(map[uuid.UUID]store.DownloadJob)}
}

func (s *fakeJobStore) CreateDownloadJob(_ context.Context, id uuid.UUID, clientIP, url, format string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	s.rows[id] = store.DownloadJob{
		JobID:    id,
		ClientIP: clientIP,
		URL:      url,
		Format:   format,
		Status:   string(jobs.StatusPending),
	}
	return nil
}

func (s *fakeJobStore) GetDownloadJob(_ context.Context, id uuid.UUID) (store.DownloadJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.rows[id]
	if !ok {
		return store.DownloadJob{}, sql.ErrNoRows
	}
	return j, nil
}

func (s *fakeJobStore) put(j store.DownloadJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[j.JobID] = j
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []uuid.UUID
}

func (d *fakeDispatcher) Dispatch(jobID uuid.UUID, _, _ string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, jobID)
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dispatched)
}

func newDownloadTestApp(jst DownloadJobStore, disp Dispatcher) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("jobs", jst)
		c.Locals("dispatcher", disp)
		return c.Next()
	})
	app.Post("/v1/downloads", submitDownloadHandler)
	app.Get("/v1/downloads/:id", downloadStatusHandler)
	app.Get("/v1/downloads/:id/file", downloadFileHandler)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func TestSubmitDownloadInvalidFormat(t *testing.T) {
	jst := newFakeJobStore()
	disp := &fakeDispatcher{}
	app := newDownloadTestApp(jst, disp)

	code, _ := postJSON(t, app, "/v1/downloads", DownloadRequest{URL: "https://youtu.be/x", Format: "wav"})
	if code != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if jst.createCalls != 0 {
		t.Fatalf("expected no store write for invalid format, got %d", jst.createCalls)
	}
	if disp.count() != 0 {
		t.Fatalf("expected no dispatch for invalid format")
	}
}

func TestSubmitDownloadMissingURL(t *testing.T) {
	jst := newFakeJobStore()
	app := newDownloadTestApp(jst, &fakeDispatcher{})

	code, _ := postJSON(t, app, "/v1/downloads", DownloadRequest{Format: "mp3"})
	if code != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if jst.createCalls != 0 {
		t.Fatalf("expected no store write for missing url")
	}
}

func TestSubmitDownloadSuccess(t *testing.T) {
	jst := newFakeJobStore()
	disp := &fakeDispatcher{}
	app := newDownloadTestApp(jst, disp)

	code, data := postJSON(t, app, "/v1/downloads", DownloadRequest{URL: "https://youtu.be/x", Format: "mp3"})
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, data)
	}

	var body SubmitDownloadResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || body.JobID == "" {
		t.Fatalf("unexpected response: %+v", body)
	}

	id, err := uuid.Parse(body.JobID)
	if err != nil {
		t.Fatalf("job_id is not a uuid: %v", err)
	}
	row, ok := jst.rows[id]
	if !ok {
		t.Fatal("no row recorded for returned job_id")
	}
	if row.Status != string(jobs.StatusPending) {
		t.Fatalf("expected PENDING row, got %q", row.Status)
	}
	if disp.count() != 1 {
		t.Fatalf("expected one dispatch, got %d", disp.count())
	}
}

func TestSubmitDownloadInsertFailure(t *testing.T) {
	jst := newFakeJobStore()
	jst.createErr = sql.ErrConnDone
	disp := &fakeDispatcher{}
	app := newDownloadTestApp(jst, disp)

	code, _ := postJSON(t, app, "/v1/downloads", DownloadRequest{URL: "https://youtu.be/x", Format: "mp4"})
	if code != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if disp.count() != 0 {
		t.Fatal("must not dispatch when the job row was not recorded")
	}
}

func getPath(t *testing.T, app *fiber.App, path string) (int, []byte, http.Header) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, resp.Header
}

func TestDownloadStatusUnknownJob(t *testing.T) {
	app := newDownloadTestApp(newFakeJobStore(), &fakeDispatcher{})

	code, _, _ := getPath(t, app, "/v1/downloads/"+uuid.NewString())
	if code != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestDownloadStatusUnparsableID(t *testing.T) {
	app := newDownloadTestApp(newFakeJobStore(), &fakeDispatcher{})

	code, _, _ := getPath(t, app, "/v1/downloads/not-a-uuid")
	if code != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unparsable id, got %d", code)
	}
}

func TestDownloadStatusReportsProgress(t *testing.T) {
	jst := newFakeJobStore()
	id := uuid.New()
	jst.put(store.DownloadJob{JobID: id, Status: string(jobs.StatusProcessing), Progress: 45})
	app := newDownloadTestApp(jst, &fakeDispatcher{})

	code, data, _ := getPath(t, app, "/v1/downloads/"+id.String())
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var body DownloadStatusResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "PROCESSING" || body.Progress != 45 {
		t.Fatalf("unexpected status body: %+v", body)
	}
}

func TestDownloadFileNotReady(t *testing.T) {
	jst := newFakeJobStore()
	id := uuid.New()
	jst.put(store.DownloadJob{JobID: id, Status: string(jobs.StatusProcessing), Progress: 60})
	app := newDownloadTestApp(jst, &fakeDispatcher{})

	code, data, _ := getPath(t, app, "/v1/downloads/"+id.String()+"/file")
	if code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for in-flight job, got %d", code)
	}
	if !strings.Contains(string(data), "NOT_READY") {
		t.Fatalf("expected NOT_READY code, got %s", data)
	}
}

func TestDownloadFileFailedJob(t *testing.T) {
	jst := newFakeJobStore()
	id := uuid.New()
	jst.put(store.DownloadJob{
		JobID:         id,
		Status:        string(jobs.StatusFailed),
		FinalFilepath: sql.NullString{String: jobs.FailedFilePath, Valid: true},
	})
	app := newDownloadTestApp(jst, &fakeDispatcher{})

	code, _, _ := getPath(t, app, "/v1/downloads/"+id.String()+"/file")
	if code != fiber.StatusNotFound {
		t.Fatalf("expected 404 for failed job, got %d", code)
	}
}

func TestDownloadFileMissingOnDisk(t *testing.T) {
	jst := newFakeJobStore()
	id := uuid.New()
	jst.put(store.DownloadJob{
		JobID:         id,
		Status:        string(jobs.StatusCompleted),
		Progress:      100,
		FinalFilepath: sql.NullString{String: filepath.Join(os.TempDir(), "curridata-missing", "gone.mp3"), Valid: true},
	})
	app := newDownloadTestApp(jst, &fakeDispatcher{})

	code, _, _ := getPath(t, app, "/v1/downloads/"+id.String()+"/file")
	if code != fiber.StatusNotFound {
		t.Fatalf("expected 404 for vanished file, got %d", code)
	}
}

func TestDownloadFileDeliveredOnce(t *testing.T) {
	scratch, err := os.MkdirTemp(t.TempDir(), "dljob-")
	if err != nil {
		t.Fatal(err)
	}
	content := []byte("fake mp3 payload")
	path := filepath.Join(scratch, "My Video.mp3")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	jst := newFakeJobStore()
	id := uuid.New()
	jst.put(store.DownloadJob{
		JobID:         id,
		Status:        string(jobs.StatusCompleted),
		Progress:      100,
		FinalFilepath: sql.NullString{String: path, Valid: true},
	})
	app := newDownloadTestApp(jst, &fakeDispatcher{})
	deliveredBefore := deliveredCount(t)

	code, data, header := getPath(t, app, "/v1/downloads/"+id.String()+"/file")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, data)
	}
	if !bytes.Equal(data, content) {
		t.Fatalf("body mismatch: got %q", data)
	}
	cd := header.Get("Content-Disposition")
	if !strings.Contains(cd, `filename="My Video.mp3"`) {
		t.Fatalf("unexpected Content-Disposition: %q", cd)
	}
	if !strings.Contains(cd, "filename*=utf-8''My%20Video.mp3") {
		t.Fatalf("missing RFC 5987 form in Content-Disposition: %q", cd)
	}

	waitGone(t, path, "delivered file")
	waitGone(t, scratch, "empty scratch dir")

	// The delivery counter moves with the stream cleanup, not the handler.
	if got := deliveredCount(t); got != deliveredBefore+1 {
		t.Fatalf("expected delivered count %d, got %d", deliveredBefore+1, got)
	}

	// Second retrieval of a consumed file is a not-found.
	code, _, _ = getPath(t, app, "/v1/downloads/"+id.String()+"/file")
	if code != fiber.StatusNotFound {
		t.Fatalf("expected 404 on second retrieval, got %d", code)
	}
}

// deliveredCount reads the files-delivered counter out of the metrics
// export.
func deliveredCount(t *testing.T) int {
	t.Helper()
	for _, line := range strings.Split(metrics.Export(), "\n") {
		if strings.HasPrefix(line, "curridata_download_files_delivered_total ") {
			n, err := strconv.Atoi(strings.TrimPrefix(line, "curridata_download_files_delivered_total "))
			if err != nil {
				t.Fatalf("unparsable delivered counter line %q: %v", line, err)
			}
			return n
		}
	}
	t.Fatal("files-delivered counter missing from metrics export")
	return 0
}

// waitGone polls for a path to disappear. Stream cleanup runs on the
// server side of the transfer and can land a moment after the client
// finishes reading the body.
func waitGone(t *testing.T, path, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s should be deleted: %s", what, path)
}

func TestContentDisposition(t *testing.T) {
	got := contentDisposition("日本語.mp3")
	if !strings.Contains(got, `filename="???.mp3"`) {
		t.Fatalf("non-ASCII runes should degrade to '?': %q", got)
	}
	if !strings.Contains(got, "filename*=utf-8''%E6%97%A5%E6%9C%AC%E8%AA%9E.mp3") {
		t.Fatalf("missing percent-encoded UTF-8 form: %q", got)
	}
}

func TestContentDispositionEscapesQuotedString(t *testing.T) {
	// Fallback-scan filenames bypass title sanitation, so quotes and
	// backslashes must not break out of the quoted fallback form.
	got := contentDisposition(`a"b\c.mp4`)
	if !strings.Contains(got, `filename="a\"b\\c.mp4"`) {
		t.Fatalf("quote and backslash should be escaped: %q", got)
	}
}
