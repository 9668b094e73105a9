package draw

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kingrea/secret-santa/internal/archive"
	"github.com/kingrea/secret-santa/internal/config"
	"github.com/kingrea/secret-santa/internal/mailer"
	"github.com/kingrea/secret-santa/internal/matcher"
	"github.com/kingrea/secret-santa/internal/report"
)

type recordingSender struct {
	mu     sync.Mutex
	sent   []mailer.Message
	failOn map[string]bool
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[msg.Name] {
		return errors.New("mailbox unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

const testContacts = `{
  "Alice": "alice@example.com",
  "Bob": "bob@example.com",
  "Charlie": "charlie@example.com",
  "David": "david@example.com"
}`

func setupProject(t *testing.T, drawYAML string) *config.Config {
	t.Helper()
	for _, key := range []string{"SANTA_SMTP_PASSWORD", "SANTA_SMTP_USERNAME", "SANTA_SMTP_HOST", "SANTA_SMTP_PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "contacts.json"), []byte(testContacts), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, config.DefaultConfigFile)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(drawYAML)), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

const twoRoundDraw = `
year: 2025
prevent_reciprocal_pairs: false
archive:
  path: .santa/archive.db
  avoid_previous_years: 1
email:
  sender: "Santa <santa@example.com>"
rounds:
  - participants: [Alice, Bob, Charlie, David]
    exclusions:
      Alice: [Bob]
    budget: 50
  - participants: [Alice, Bob, Charlie, David]
`

func fixedClock() time.Time {
	return time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
}

func TestPrepareAndDeliver(t *testing.T) {
	cfg := setupProject(t, twoRoundDraw)
	sender := &recordingSender{}
	runner, err := New(cfg, WithSender(sender), WithSeed(7), WithClock(fixedClock), WithIDGenerator(func() string { return "draw-1" }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer runner.Close()

	ctx := context.Background()
	prepared, err := runner.Prepare(ctx)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if prepared.Draw.ID != "draw-1" || len(prepared.Draw.Rounds) != 2 {
		t.Fatalf("unexpected draw %+v", prepared.Draw)
	}
	if got := strings.Join(prepared.Recipients(), ","); got != "Alice,Bob,Charlie,David" {
		t.Fatalf("recipients = %s", got)
	}
	first := prepared.Draw.Rounds[0].Pairing
	if first["Alice"] == "Bob" || first["Bob"] == "Alice" {
		t.Fatalf("exclusion violated: %v", first)
	}
	for giver, receiver := range prepared.Draw.Rounds[1].Pairing {
		if first[giver] == receiver {
			t.Fatalf("%s drew %s twice", giver, receiver)
		}
	}
	if _, err := report.ReadDebug(prepared.DebugPath); err != nil {
		t.Fatalf("debug artifact unreadable: %v", err)
	}

	var progress []string
	rep, err := runner.Deliver(ctx, prepared, func(d Delivery) { progress = append(progress, d.Name) })
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if rep.Sent != 4 || len(rep.Failed) != 0 || len(progress) != 4 {
		t.Fatalf("unexpected report %+v (progress %v)", rep, progress)
	}
	if !strings.Contains(sender.sent[0].HTML, "Round 2") {
		t.Fatalf("multi-round email should label rounds:\n%s", sender.sent[0].HTML)
	}
	runner.Close()

	store, err := archive.Open(cfg.ArchivePath())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	entries, err := store.Entries(ctx, 2025)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 archived assignments, got %d", len(entries))
	}

	lines, _ := runner.Journal().Tail(20)
	journal := strings.Join(lines, "\n")
	if !strings.Contains(journal, "draw draw-1 finished and archived") {
		t.Fatalf("journal missing completion entry:\n%s", journal)
	}
}

func TestPrepareSeedsHistoryFromArchive(t *testing.T) {
	cfg := setupProject(t, `
year: 2025
archive:
  path: .santa/archive.db
  avoid_previous_years: 1
rounds:
  - participants: [Alice, Bob, Charlie]
`)
	store, err := archive.Open(cfg.ArchivePath())
	if err != nil {
		t.Fatal(err)
	}
	lastYear := []matcher.RoundResult{{Pairing: matcher.Pairing{"Alice": "Bob", "Bob": "Charlie", "Charlie": "Alice"}}}
	if err := store.Record(context.Background(), "2024", 2024, lastYear, time.Time{}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	runner, err := New(cfg, WithSender(&recordingSender{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer runner.Close()
	prepared, err := runner.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	got := prepared.Draw.Rounds[0].Pairing
	if got["Alice"] != "Charlie" || got["Bob"] != "Alice" || got["Charlie"] != "Bob" {
		t.Fatalf("archived pairs should be avoided, got %v", got)
	}
}

func TestPrepareReportsExhaustion(t *testing.T) {
	cfg := setupProject(t, `
max_attempts: 3
rounds:
  - participants: [Alice, Bob]
    exclusions:
      Alice: [Bob]
`)
	runner, err := New(cfg, WithSender(&recordingSender{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer runner.Close()
	_, err = runner.Prepare(context.Background())
	var exhausted *matcher.ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 3 {
		t.Fatalf("expected exhaustion after 3 attempts, got %v", err)
	}
	lines, _ := runner.Journal().Tail(10)
	if len(lines) != 4 {
		t.Fatalf("expected 3 warnings and 1 error, got %q", lines)
	}
}

func TestDeliverFailureSkipsArchive(t *testing.T) {
	cfg := setupProject(t, twoRoundDraw)
	sender := &recordingSender{failOn: map[string]bool{"Charlie": true}}
	runner, err := New(cfg, WithSender(sender))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer runner.Close()
	ctx := context.Background()
	prepared, err := runner.Prepare(ctx)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	rep, err := runner.Deliver(ctx, prepared, nil)
	if err == nil || !strings.Contains(err.Error(), "Charlie") {
		t.Fatalf("expected failure naming Charlie, got %v", err)
	}
	if rep.Sent != 3 || len(rep.Failed) != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	entries, err := runner.archive.Entries(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed delivery must not be archived, got %d entries", len(entries))
	}
}

func TestDryRunWritesFilesAndSkipsArchive(t *testing.T) {
	cfg := setupProject(t, twoRoundDraw)
	outDir := filepath.Join(t.TempDir(), "out")
	runner, err := New(cfg, WithDryRun(outDir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer runner.Close()
	ctx := context.Background()
	prepared, err := runner.Prepare(ctx)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := runner.Deliver(ctx, prepared, nil); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	files, err := filepath.Glob(filepath.Join(outDir, "*.html"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %v", files)
	}
	entries, err := runner.archive.Entries(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("dry run must not be archived")
	}
}

func TestNewRequiresPasswordForSMTP(t *testing.T) {
	cfg := setupProject(t, `
rounds:
  - participants: [Alice, Bob]
`)
	if _, err := New(cfg); !errors.Is(err, ErrMissingPassword) {
		t.Fatalf("expected ErrMissingPassword, got %v", err)
	}
}

func TestPrepareRequiresContacts(t *testing.T) {
	cfg := setupProject(t, `
rounds:
  - participants: [Alice, Bob, Zoe]
`)
	runner, err := New(cfg, WithSender(&recordingSender{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer runner.Close()
	if _, err := runner.Prepare(context.Background()); err == nil || !strings.Contains(err.Error(), "Zoe") {
		t.Fatalf("expected missing contact error for Zoe, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	cfg := setupProject(t, `
prevent_reciprocal_pairs: true
rounds:
  - participants: [Alice, Bob, Charlie, David]
  - participants: [Alice, Bob]
`)
	got := Check(cfg)
	if len(got) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(got))
	}
	if got[0].Candidates != 6 || got[0].Participants != 4 {
		t.Fatalf("round 1 = %+v, want 6 candidates", got[0])
	}
	if got[1].Candidates != 0 {
		t.Fatalf("round 2 = %+v, want 0 candidates", got[1])
	}
}
