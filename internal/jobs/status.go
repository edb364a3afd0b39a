package jobs

// Status represents the lifecycle state of a download job in the
// download_jobs table. These values must match the text values stored
// in the database (download_jobs.status).
//
// Transitions are strictly PENDING -> PROCESSING -> {COMPLETED, FAILED};
// terminal states are absorbing.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// FailedFilePath is the sentinel stored in final_filepath when a job
// fails. It is distinct from any valid path and means "no file".
const FailedFilePath = "ERROR"

// Formats lists the accepted target formats for a download job.
var Formats = map[string]bool{
	"mp3": true,
	"mp4": true,
}
