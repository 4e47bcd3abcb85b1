package lyricsfile

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/onemusic/pipeline/internal/core/domain"
)

func TestNameIsStableAndWellFormed(t *testing.T) {
	const url = "https://genius.test/songs/123"

	name := Name(url)
	if name != Name(url) {
		t.Fatal("name not deterministic")
	}
	if matched, _ := regexp.MatchString(`^[0-9a-f]{16}\.txt$`, name); !matched {
		t.Fatalf("unexpected name shape: %q", name)
	}
	if Name("https://genius.test/songs/124") == name {
		t.Fatal("distinct urls collided")
	}
}

func TestSaveReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	name := Name("https://genius.test/songs/1")

	const body = "first line\nsecond line"
	if err := Save(dir, name, body); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Read(dir, name)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != body {
		t.Fatalf("got %q, want %q", got, body)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(t.TempDir(), "0000000000000000.txt")
	if !errors.Is(err, domain.ErrMissingLocalFile) {
		t.Fatalf("expected ErrMissingLocalFile, got %v", err)
	}
}

func TestStripHeaders(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		replacement string
		want        string
	}{
		{
			name:        "section markers replaced",
			body:        "[Verse 1]\nhello\n[Chorus]\nworld",
			replacement: "--",
			want:        "--\nhello\n--\nworld",
		},
		{
			name:        "no markers untouched",
			body:        "hello world",
			replacement: "--",
			want:        "hello world",
		},
		{
			name:        "marker with artist names",
			body:        "[Chorus: A & B]\nline",
			replacement: " ",
			want:        "line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHeaders(tt.body, tt.replacement); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("a", 200) + strings.Repeat("b", 100)

	if got := Snippet(long, true); got != strings.Repeat("b", 100) {
		t.Fatalf("primary snippet should skip the leading window, got %q", got)
	}
	if got := Snippet(long, false); got != strings.Repeat("a", 200) {
		t.Fatalf("translation snippet should sample the top, got %q", got)
	}

	// Bodies shorter than the window are used whole either way.
	if got := Snippet("short", true); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Snippet("short", false); got != "short" {
		t.Fatalf("got %q", got)
	}

	// The window is rune-based, not byte-based.
	multibyte := strings.Repeat("한", 200) + "끝"
	if got := Snippet(multibyte, true); got != "끝" {
		t.Fatalf("got %q", got)
	}
}
