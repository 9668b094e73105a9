package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/secret-santa/internal/matcher"
)

func sampleDraw() Draw {
	return Draw{
		ID:       "d3adb33f",
		Year:     2025,
		Attempts: 3,
		Created:  time.Date(2025, 11, 30, 18, 0, 0, 0, time.UTC),
		Language: "en",
		Rounds: []matcher.RoundResult{
			{Pairing: matcher.Pairing{"Alice": "Bob", "Bob": "Charlie", "Charlie": "Alice"}, Budget: "50"},
			{Pairing: matcher.Pairing{"Alice": "Charlie", "Charlie": "Alice"}},
		},
	}
}

func TestWriteAndReadDebug(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	d := sampleDraw()
	path, err := WriteDebug(dir, d)
	if err != nil {
		t.Fatalf("WriteDebug: %v", err)
	}
	if path != DebugPath(dir, d.ID) {
		t.Fatalf("unexpected path %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"santa:", "draw: d3adb33f", "## Round 1 (budget 50)", "| Alice | Bob |"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("debug file missing %q:\n%s", want, content)
		}
	}

	loaded, err := ReadDebug(path)
	if err != nil {
		t.Fatalf("ReadDebug: %v", err)
	}
	if loaded.ID != d.ID || loaded.Attempts != 3 || !loaded.Created.Equal(d.Created) {
		t.Fatalf("metadata mismatch: %+v", loaded)
	}
	if len(loaded.Rounds) != 2 || loaded.Rounds[0].Budget != "50" {
		t.Fatalf("rounds mismatch: %+v", loaded.Rounds)
	}
	if loaded.Rounds[1].Pairing["Charlie"] != "Alice" {
		t.Fatalf("pairing mismatch: %v", loaded.Rounds[1].Pairing)
	}
}

func TestReadDebugRejectsPlainMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draw.md")
	if err := os.WriteFile(path, []byte("# just notes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDebug(path); !errors.Is(err, ErrMissingFrontMatter) {
		t.Fatalf("expected ErrMissingFrontMatter, got %v", err)
	}
	unterminated := filepath.Join(t.TempDir(), "draw.md")
	if err := os.WriteFile(unterminated, []byte("---\nsanta:\n  draw: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDebug(unterminated); !errors.Is(err, ErrMalformedFrontMatter) {
		t.Fatalf("expected ErrMalformedFrontMatter, got %v", err)
	}
}

func TestSummaryHidesReceivers(t *testing.T) {
	lines := SummaryLines(sampleDraw())
	want := []string{
		"Draw d3adb33f for 2025",
		"Found on attempt 3",
		"Round 1: 3 participants, budget 50",
		"Round 2: 2 participants",
		"Alice: 2 assignments",
		"Bob: 1 assignment",
		"Charlie: 2 assignments",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("SummaryLines =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
	rendered := Summary(sampleDraw())
	if !strings.Contains(rendered, "Found on attempt 3") {
		t.Fatalf("rendered summary missing content:\n%s", rendered)
	}
}
