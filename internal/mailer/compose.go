// Package mailer turns committed draws into per-participant emails and
// delivers them.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strconv"

	"github.com/kingrea/secret-santa/internal/contacts"
	"github.com/kingrea/secret-santa/internal/i18n"
	"github.com/kingrea/secret-santa/internal/matcher"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Assignment is one receiver a giver drew.
type Assignment struct {
	Round    int
	Receiver string
	Budget   string
}

// Message is a rendered email ready to be sent.
type Message struct {
	Name    string
	To      string
	From    string
	Subject string
	HTML    string
}

// Settings carries the draw-wide values rendered into every email.
type Settings struct {
	Subject string
	Sender  string
	Year    int
	DrawID  string
}

// Assignments groups the results by giver, keeping round order.
func Assignments(results []matcher.RoundResult) map[string][]Assignment {
	out := map[string][]Assignment{}
	for i, result := range results {
		for _, giver := range result.Pairing.Givers() {
			out[string(giver)] = append(out[string(giver)], Assignment{
				Round:    i + 1,
				Receiver: string(result.Pairing[giver]),
				Budget:   result.Budget,
			})
		}
	}
	return out
}

type assignmentLine struct {
	Round    string
	Receiver string
	Budget   string
}

type emailData struct {
	Greeting       string
	Year           string
	AssignmentText string
	Assignments    []assignmentLine
	Footer         string
	Sender         string
	DrawIDLabel    string
	DrawID         string
}

// Compose renders one message per giver, ordered by name. Round labels are
// only shown when the draw has more than one round.
func Compose(results []matcher.RoundResult, book *contacts.Book, tr *i18n.Translator, settings Settings) ([]Message, error) {
	subject := settings.Subject
	if subject == "" {
		subject = tr.Subject(settings.Year)
	}
	byGiver := Assignments(results)
	givers := make([]string, 0, len(byGiver))
	for giver := range byGiver {
		givers = append(givers, giver)
	}
	sort.Strings(givers)

	messages := make([]Message, 0, len(givers))
	for _, giver := range givers {
		address, ok := book.Lookup(giver)
		if !ok {
			return nil, fmt.Errorf("mailer: %w for %s", contacts.ErrMissingContact, giver)
		}
		body, err := Render(giver, byGiver[giver], len(results), tr, settings)
		if err != nil {
			return nil, err
		}
		messages = append(messages, Message{
			Name:    giver,
			To:      address,
			From:    settings.Sender,
			Subject: subject,
			HTML:    body,
		})
	}
	return messages, nil
}

// Render produces the HTML body for one giver.
func Render(name string, assignments []Assignment, totalRounds int, tr *i18n.Translator, settings Settings) (string, error) {
	data := emailData{
		Greeting:       tr.Greeting(name),
		Year:           strconv.Itoa(settings.Year),
		AssignmentText: tr.AssignmentText(len(assignments)),
		Footer:         tr.Footer(),
		Sender:         settings.Sender,
		DrawIDLabel:    tr.DrawIDLabel(),
		DrawID:         settings.DrawID,
	}
	for _, a := range assignments {
		line := assignmentLine{Receiver: a.Receiver}
		if totalRounds > 1 {
			line.Round = tr.Round(a.Round)
		}
		if a.Budget != "" {
			line.Budget = tr.Budget(a.Budget)
		}
		data.Assignments = append(data.Assignments, line)
	}
	tmpl := tr.Language() + ".tmpl"
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return "", fmt.Errorf("mailer: render %s: %w", tmpl, err)
	}
	return buf.String(), nil
}
