package jobs

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeTitle strips a media title down to characters that are safe in
// a filename: letters, digits, spaces, underscores and hyphens. Trailing
// spaces are trimmed. Non-ASCII letters are kept so non-English titles
// survive into the delivered filename.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// findByExtension scans dir for the first regular file with the given
// extension. Returns "" when none is found.
func findByExtension(dir, ext string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ext) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}
