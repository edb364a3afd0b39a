package media

import "context"

// Phase describes what the fetcher is currently doing when it reports
// progress.
type Phase string

const (
	// PhaseDownloading means bytes are being transferred; done/total
	// carry the byte counts.
	PhaseDownloading Phase = "downloading"
	// PhaseFinished means the transfer is done but post-processing
	// (transcoding/muxing) is still pending; done/total are zero.
	PhaseFinished Phase = "finished"
)

// ProgressFunc is the event sink a caller passes to observe fetch
// progress. It is invoked synchronously from within the fetch call,
// zero or more times.
type ProgressFunc func(phase Phase, done, total int64)

// Request describes one fetch: retrieve the media at URL, transcode it
// to Format and write the result to OutputPath.
type Request struct {
	URL        string
	Format     string // "mp3" or "mp4"
	OutputPath string
	Progress   ProgressFunc
}

// Fetcher retrieves and transcodes a remote media resource to a local
// file. Probe resolves metadata without downloading anything so callers
// can predict the output filename up front.
type Fetcher interface {
	Probe(ctx context.Context, url string) (title string, err error)
	Fetch(ctx context.Context, req Request) error
}
