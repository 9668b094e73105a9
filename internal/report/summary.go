package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C0392B"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2E7D32")).
			Padding(0, 1)
)

// SummaryLines describes d without revealing any receiver: rounds, budgets
// and how many assignments each participant got.
func SummaryLines(d Draw) []string {
	lines := []string{
		fmt.Sprintf("Draw %s for %d", d.ID, d.Year),
		fmt.Sprintf("Found on attempt %d", d.Attempts),
	}
	counts := map[string]int{}
	for i, round := range d.Rounds {
		line := fmt.Sprintf("Round %d: %d participants", i+1, len(round.Pairing))
		if round.Budget != "" {
			line += ", budget " + round.Budget
		}
		lines = append(lines, line)
		for giver := range round.Pairing {
			counts[string(giver)]++
		}
	}
	for _, name := range d.Participants() {
		noun := "assignments"
		if counts[name] == 1 {
			noun = "assignment"
		}
		lines = append(lines, fmt.Sprintf("%s: %d %s", name, counts[name], noun))
	}
	return lines
}

// Summary renders SummaryLines as a styled terminal box.
func Summary(d Draw) string {
	lines := SummaryLines(d)
	var b strings.Builder
	b.WriteString(titleStyle.Render(lines[0]))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(lines[1]))
	for _, line := range lines[2:] {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return boxStyle.Render(b.String())
}
