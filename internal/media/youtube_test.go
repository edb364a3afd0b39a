package media

import (
	"testing"

	ytdl "github.com/kkdai/youtube/v2"
)

func TestSelectMuxedMP4Format(t *testing.T) {
	formats := []ytdl.Format{
		{MimeType: `video/mp4; codecs="avc1.64001F"`, AudioChannels: 0, Bitrate: 900_000},
		{MimeType: `video/webm; codecs="vp9"`, AudioChannels: 2, Bitrate: 800_000},
		{MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, AudioChannels: 2, Bitrate: 500_000},
		{MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, AudioChannels: 2, Bitrate: 700_000},
	}

	got := selectMuxedMP4Format(formats)
	if got == nil {
		t.Fatal("expected a muxed mp4 format, got nil")
	}
	if got.Bitrate != 700_000 {
		t.Fatalf("expected highest-bitrate muxed stream (700000), got %d", got.Bitrate)
	}
}

func TestSelectMuxedMP4Format_NoneAvailable(t *testing.T) {
	formats := []ytdl.Format{
		{MimeType: `video/mp4; codecs="avc1.64001F"`, AudioChannels: 0, Bitrate: 900_000},
		{MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, Bitrate: 128_000},
	}
	if got := selectMuxedMP4Format(formats); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSelectBestAudioFormat_PrefersM4A(t *testing.T) {
	formats := []ytdl.Format{
		{MimeType: `audio/webm; codecs="opus"`, Bitrate: 160_000},
		{MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128_000},
		{MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 96_000},
		{MimeType: `video/mp4; codecs="avc1"`, AudioChannels: 2, Bitrate: 500_000},
	}

	got := selectBestAudioFormat(formats)
	if got == nil {
		t.Fatal("expected an audio format, got nil")
	}
	// m4a wins over the higher-bitrate webm, and the best m4a is chosen.
	if got.MimeType != `audio/mp4; codecs="mp4a.40.2"` || got.Bitrate != 128_000 {
		t.Fatalf("expected 128k m4a stream, got %+v", got)
	}
}

func TestIntermediateAudioPath(t *testing.T) {
	m4a := &ytdl.Format{MimeType: `audio/mp4; codecs="mp4a.40.2"`}
	if got := intermediateAudioPath("/tmp/job1/My Song.mp3", m4a); got != "/tmp/job1/My Song.source.m4a" {
		t.Fatalf("unexpected intermediate path: %s", got)
	}

	webm := &ytdl.Format{MimeType: `audio/webm; codecs="opus"`}
	if got := intermediateAudioPath("/tmp/job1/My Song.mp3", webm); got != "/tmp/job1/My Song.source.webm" {
		t.Fatalf("unexpected intermediate path: %s", got)
	}
}
