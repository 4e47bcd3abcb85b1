// Package lyricsfile handles the content-addressed flat files that hold
// lyrics bodies. File names derive deterministically from the source URL so
// the database row and the file stay in sync across runs.
package lyricsfile

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/onemusic/pipeline/internal/core/domain"
)

// Name returns the stable file name for a lyrics source URL.
func Name(url string) string {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(url))
	return fmt.Sprintf("%016x.txt", hasher.Sum64())
}

// Save writes the lyrics body under dir. The file is written independent of
// database transaction success: a file may exist without a committed row
// (recoverable orphan) but never the reverse in steady state.
func Save(dir, name, body string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("lyricsfile: failed to create save dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		return fmt.Errorf("lyricsfile: failed to write %s: %w", name, err)
	}
	return nil
}

// Read loads a persisted lyrics body. A missing file maps to
// domain.ErrMissingLocalFile so callers can skip-and-log instead of failing
// the run.
func Read(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("lyricsfile: %s: %w", name, domain.ErrMissingLocalFile)
		}
		return "", fmt.Errorf("lyricsfile: failed to read %s: %w", name, err)
	}
	return string(data), nil
}

var sectionHeader = regexp.MustCompile(`\[[^\]\n]*\]`)

// StripHeaders replaces bracketed section markers such as "[Chorus]" with
// the replacement string before embedding, then collapses leftover blank
// runs at the edges.
func StripHeaders(body, replacement string) string {
	return strings.TrimSpace(sectionHeader.ReplaceAllString(body, replacement))
}

// Snippet returns the detection snippet for a lyrics body. Primary pages
// carry variable front matter (title/album headers), so the snippet skips a
// leading window; translations are sampled from the top. The offset is
// heuristic, not content-aware: very short songs may mis-detect.
func Snippet(body string, skipLeading bool) string {
	const window = 200

	runes := []rune(body)
	if skipLeading {
		if len(runes) <= window {
			return string(runes)
		}
		return string(runes[window:])
	}

	if len(runes) <= window {
		return string(runes)
	}
	return string(runes[:window])
}
