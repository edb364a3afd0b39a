package jobs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plain Title", "Plain Title"},
		{"Weird/Name: *bad* chars?", "WeirdName bad chars"},
		{"under_score - dash", "under_score - dash"},
		{"trailing spaces   ", "trailing spaces"},
		{"日本語のタイトル", "日本語のタイトル"},
		{"***", ""},
	}
	for _, tc := range cases {
		if got := SanitizeTitle(tc.in); got != tc.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFindByExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clip.webm"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "song.mp3"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got := findByExtension(dir, ".mp3"); got != filepath.Join(dir, "song.mp3") {
		t.Fatalf("expected song.mp3, got %q", got)
	}
	if got := findByExtension(dir, ".mp4"); got != "" {
		t.Fatalf("expected no match for .mp4, got %q", got)
	}
	if got := findByExtension(filepath.Join(dir, "missing"), ".mp3"); got != "" {
		t.Fatalf("expected no match for missing dir, got %q", got)
	}
}
