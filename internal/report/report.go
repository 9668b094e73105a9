// Package report writes the private debug record of a draw and renders the
// public summary that never reveals who drew whom.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kingrea/secret-santa/internal/matcher"
)

// Draw is one committed, fully valid draw.
type Draw struct {
	ID       string
	Year     int
	Attempts int
	Created  time.Time
	Language string
	Rounds   []matcher.RoundResult
}

// Participants returns the distinct givers across all rounds, sorted.
func (d Draw) Participants() []string {
	seen := map[matcher.Participant]bool{}
	var out []string
	for _, round := range d.Rounds {
		for giver := range round.Pairing {
			if !seen[giver] {
				seen[giver] = true
				out = append(out, string(giver))
			}
		}
	}
	sort.Strings(out)
	return out
}

// DebugPath returns where WriteDebug stores d inside dir.
func DebugPath(dir, drawID string) string {
	return filepath.Join(dir, "draw-"+drawID+".md")
}

// WriteDebug stores the full pairings of d as markdown with YAML
// frontmatter and returns the file path. The file is only readable by the
// owner.
func WriteDebug(dir string, d Draw) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("report: ensure %s: %w", dir, err)
	}
	env := envelope{Santa: drawMetadata{
		Draw:         d.ID,
		Year:         d.Year,
		Attempts:     d.Attempts,
		Created:      d.Created.UTC().Format(time.RFC3339),
		Language:     d.Language,
		Participants: len(d.Participants()),
	}}
	for _, round := range d.Rounds {
		pairs := make(map[string]string, len(round.Pairing))
		for giver, receiver := range round.Pairing {
			pairs[string(giver)] = string(receiver)
		}
		env.Santa.Rounds = append(env.Santa.Rounds, roundMetadata{Budget: round.Budget, Pairs: pairs})
	}
	content, err := writeFrontMatter(env, debugBody(d))
	if err != nil {
		return "", err
	}
	path := DebugPath(dir, d.ID)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// ReadDebug loads a draw previously written by WriteDebug.
func ReadDebug(path string) (Draw, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Draw{}, fmt.Errorf("report: read %s: %w", path, err)
	}
	env, _, err := parseFrontMatter(content)
	if err != nil {
		return Draw{}, err
	}
	meta := env.Santa
	d := Draw{ID: meta.Draw, Year: meta.Year, Attempts: meta.Attempts, Language: meta.Language}
	if meta.Created != "" {
		created, err := time.Parse(time.RFC3339, meta.Created)
		if err != nil {
			return Draw{}, fmt.Errorf("report: parse created: %w", err)
		}
		d.Created = created
	}
	for _, round := range meta.Rounds {
		pairing := make(matcher.Pairing, len(round.Pairs))
		for giver, receiver := range round.Pairs {
			pairing[matcher.Participant(giver)] = matcher.Participant(receiver)
		}
		d.Rounds = append(d.Rounds, matcher.RoundResult{Pairing: pairing, Budget: round.Budget})
	}
	return d, nil
}

func debugBody(d Draw) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Draw %s (%d)\n\n", d.ID, d.Year)
	fmt.Fprintf(&buf, "Found on attempt %d.\n", d.Attempts)
	for i, round := range d.Rounds {
		fmt.Fprintf(&buf, "\n## Round %d", i+1)
		if round.Budget != "" {
			fmt.Fprintf(&buf, " (budget %s)", round.Budget)
		}
		buf.WriteString("\n\n| Giver | Receiver |\n|---|---|\n")
		for _, giver := range round.Pairing.Givers() {
			fmt.Fprintf(&buf, "| %s | %s |\n", escapeCell(string(giver)), escapeCell(string(round.Pairing[giver])))
		}
	}
	return buf.Bytes()
}

func escapeCell(value string) string {
	return strings.ReplaceAll(value, "|", `\|`)
}
