package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for HTTP requests and the download
// pipeline. This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	jobsSubmitted      = make(map[string]int64)
	jobsCompleted      = make(map[string]int64)
	jobsFailed         = make(map[string]int64)
	jobDurationMsSum   = make(map[string]int64)
	jobDurationMsCount = make(map[string]int64)

	filesDelivered int64

	retentionJobsDeleted int64
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

// RecordRequest increments request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordJobSubmitted increments the submitted-jobs counter for a format.
func RecordJobSubmitted(format string) {
	mu.Lock()
	defer mu.Unlock()
	jobsSubmitted[format]++
}

// RecordJobCompleted increments the completed-jobs counter and records
// the job's wall-clock duration.
func RecordJobCompleted(format string, durationMs int64) {
	mu.Lock()
	defer mu.Unlock()
	jobsCompleted[format]++
	jobDurationMsSum[format] += durationMs
	jobDurationMsCount[format]++
}

// RecordJobFailed increments the failed-jobs counter for a format.
func RecordJobFailed(format string) {
	mu.Lock()
	defer mu.Unlock()
	jobsFailed[format]++
}

// RecordFileDelivered increments the counter of result files streamed to
// clients (and subsequently deleted).
func RecordFileDelivered() {
	mu.Lock()
	defer mu.Unlock()
	filesDelivered++
}

// RecordRetentionJobs increments the counter of download-job rows
// deleted by TTL cleanup.
func RecordRetentionJobs(deleted int64) {
	if deleted <= 0 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	retentionJobsDeleted += deleted
}

func writeFormatCounter(b *strings.Builder, name string, m map[string]int64) {
	var formats []string
	for f := range m {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	for _, f := range formats {
		fmt.Fprintf(b, "%s{format=\"%s\"} %d\n", name, f, m[f])
	}
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP curridata_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE curridata_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		v := requestsTotal[k]
		fmt.Fprintf(&b, "curridata_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, v)
	}

	b.WriteString("# HELP curridata_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE curridata_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP curridata_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE curridata_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		sum := latencyMsSum[k]
		cnt := latencyMsCount[k]
		fmt.Fprintf(&b, "curridata_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, sum)
		fmt.Fprintf(&b, "curridata_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, cnt)
	}

	// Download pipeline metrics
	b.WriteString("# HELP curridata_download_jobs_submitted_total Total download jobs submitted by target format\n")
	b.WriteString("# TYPE curridata_download_jobs_submitted_total counter\n")
	writeFormatCounter(&b, "curridata_download_jobs_submitted_total", jobsSubmitted)

	b.WriteString("# HELP curridata_download_jobs_completed_total Total download jobs that reached COMPLETED\n")
	b.WriteString("# TYPE curridata_download_jobs_completed_total counter\n")
	writeFormatCounter(&b, "curridata_download_jobs_completed_total", jobsCompleted)

	b.WriteString("# HELP curridata_download_jobs_failed_total Total download jobs that reached FAILED\n")
	b.WriteString("# TYPE curridata_download_jobs_failed_total counter\n")
	writeFormatCounter(&b, "curridata_download_jobs_failed_total", jobsFailed)

	b.WriteString("# HELP curridata_download_job_duration_ms_sum Total job duration in milliseconds\n")
	b.WriteString("# TYPE curridata_download_job_duration_ms_sum counter\n")
	writeFormatCounter(&b, "curridata_download_job_duration_ms_sum", jobDurationMsSum)

	b.WriteString("# HELP curridata_download_job_duration_ms_count Completed job count for duration metric\n")
	b.WriteString("# TYPE curridata_download_job_duration_ms_count counter\n")
	writeFormatCounter(&b, "curridata_download_job_duration_ms_count", jobDurationMsCount)

	b.WriteString("# HELP curridata_download_files_delivered_total Total result files streamed to clients\n")
	b.WriteString("# TYPE curridata_download_files_delivered_total counter\n")
	fmt.Fprintf(&b, "curridata_download_files_delivered_total %d\n", filesDelivered)

	// Retention metrics
	b.WriteString("# HELP curridata_retention_jobs_deleted_total Total download-job rows deleted by TTL\n")
	b.WriteString("# TYPE curridata_retention_jobs_deleted_total counter\n")
	fmt.Fprintf(&b, "curridata_retention_jobs_deleted_total %d\n", retentionJobsDeleted)

	return b.String()
}
