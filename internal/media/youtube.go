package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// YouTubeFetcher implements Fetcher on top of the youtube stream API.
// mp4 requests download the best muxed video stream directly; mp3
// requests download the best audio stream and transcode it with ffmpeg.
type YouTubeFetcher struct {
	client     ytdl.Client
	mp3Bitrate int
}

// NewYouTubeFetcher constructs a fetcher. mp3BitrateKbps <= 0 selects
// the default of 320.
func NewYouTubeFetcher(mp3BitrateKbps int) *YouTubeFetcher {
	if mp3BitrateKbps <= 0 {
		mp3BitrateKbps = 320
	}
	return &YouTubeFetcher{mp3Bitrate: mp3BitrateKbps}
}

// Probe resolves the video title without downloading any media.
func (f *YouTubeFetcher) Probe(ctx context.Context, url string) (string, error) {
	video, err := f.client.GetVideoContext(ctx, url)
	if err != nil {
		return "", fmt.Errorf("probe video: %w", err)
	}
	return video.Title, nil
}

// Fetch downloads and, if needed, transcodes the media to req.OutputPath.
func (f *YouTubeFetcher) Fetch(ctx context.Context, req Request) error {
	video, err := f.client.GetVideoContext(ctx, req.URL)
	if err != nil {
		return fmt.Errorf("get video: %w", err)
	}

	switch req.Format {
	case "mp4":
		format := selectMuxedMP4Format(video.Formats)
		if format == nil {
			return fmt.Errorf("no muxed mp4 stream available")
		}
		return f.downloadStream(ctx, video, format, req.OutputPath, req.Progress)
	case "mp3":
		format := selectBestAudioFormat(video.Formats)
		if format == nil {
			return fmt.Errorf("no audio stream available")
		}

		// Download the raw audio stream next to the output file, then
		// transcode it. The intermediate is removed on success; a failed
		// job's scratch directory is removed wholesale by the caller.
		intermediate := intermediateAudioPath(req.OutputPath, format)
		if err := f.downloadStream(ctx, video, format, intermediate, req.Progress); err != nil {
			return err
		}

		if req.Progress != nil {
			req.Progress(PhaseFinished, 0, 0)
		}

		if err := transcodeToMP3(ctx, intermediate, req.OutputPath, f.mp3Bitrate); err != nil {
			return err
		}
		_ = os.Remove(intermediate)
		return nil
	default:
		return fmt.Errorf("unsupported target format: %s", req.Format)
	}
}

func (f *YouTubeFetcher) downloadStream(ctx context.Context, video *ytdl.Video, format *ytdl.Format, outputPath string, progress ProgressFunc) error {
	stream, size, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}
	defer stream.Close()

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if err := copyWithProgress(ctx, file, stream, size, progress); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("download: %w", err)
	}
	return nil
}

// selectMuxedMP4Format picks the highest-bitrate mp4 stream that carries
// both video and audio, so no muxing step is needed.
func selectMuxedMP4Format(formats []ytdl.Format) *ytdl.Format {
	var best *ytdl.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "video/mp4") || f.AudioChannels == 0 {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return best
}

// selectBestAudioFormat picks the highest-bitrate audio-only stream,
// preferring m4a containers which ffmpeg handles most reliably.
func selectBestAudioFormat(formats []ytdl.Format) *ytdl.Format {
	var best *ytdl.Format
	bestIsM4A := false
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		isM4A := strings.Contains(f.MimeType, "mp4")
		switch {
		case best == nil:
			best, bestIsM4A = f, isM4A
		case isM4A && !bestIsM4A:
			best, bestIsM4A = f, isM4A
		case isM4A == bestIsM4A && f.Bitrate > best.Bitrate:
			best = f
		}
	}
	return best
}

// intermediateAudioPath derives a scratch filename for the raw audio
// stream from the final output path and the stream container.
func intermediateAudioPath(outputPath string, format *ytdl.Format) string {
	ext := ".webm"
	if strings.Contains(format.MimeType, "mp4") {
		ext = ".m4a"
	}
	base := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	return filepath.Join(filepath.Dir(outputPath), base+".source"+ext)
}

// copyWithProgress copies src to dst, reporting transferred bytes after
// every write and honoring context cancellation between reads.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress ProgressFunc) error {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		nr, err := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw > 0 {
				written += int64(nw)
				if progress != nil {
					progress(PhaseDownloading, written, total)
				}
			}
			if ew != nil {
				return ew
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}

	return nil
}
