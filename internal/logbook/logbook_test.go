package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "draw.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestEntriesCarryLevelAndTimestamp(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 12, 1, 9, 30, 0, 0, time.UTC) }
	book, err := New(filepath.Join(t.TempDir(), "draw.log"), WithClock(clock))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Warn("attempt %d abandoned", 2)
	book.Error("send failed\n")
	lines, _ := book.Tail(10)
	want := []string{
		"2025-12-01T09:30:00Z WARN  attempt 2 abandoned",
		"2025-12-01T09:30:00Z ERROR send failed",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if lines, total := book.Tail(1); lines != nil || total != 0 {
		t.Fatalf("nil logbook should return nothing")
	}
	if book.Path() != "" {
		t.Fatalf("nil logbook path should be empty")
	}
}
