package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/secret-santa/internal/logbook"
)

// SendFunc delivers the email for recipient index i.
type SendFunc func(ctx context.Context, i int) error

type state int

const (
	stateConfirm state = iota
	stateSending
	stateDone
	stateAborted
)

type sentMsg struct {
	index int
	err   error
}

// App is the confirm-and-send screen shown after a draw was generated.
type App struct {
	ctx        context.Context
	summary    string
	recipients []string
	send       SendFunc
	logbook    *logbook.Logbook
	dryRun     bool

	state   state
	spinner spinner.Model
	current int
	errs    []error
	width   int
}

// Option configures an App.
type Option func(*App)

// WithLogbook shows the tail of lb below the progress list.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithDryRun labels the screen as writing files instead of sending mail.
func WithDryRun(dryRun bool) Option {
	return func(a *App) {
		a.dryRun = dryRun
	}
}

// New builds the app. summary is rendered verbatim at the top and must not
// reveal assignments.
func New(ctx context.Context, summary string, recipients []string, send SendFunc, opts ...Option) *App {
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0392B"))
	a := &App{
		ctx:        ctx,
		summary:    summary,
		recipients: recipients,
		send:       send,
		spinner:    sp,
		errs:       make([]error, len(recipients)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case spinner.TickMsg:
		if a.state != stateSending {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case sentMsg:
		a.errs[msg.index] = msg.err
		a.current = msg.index + 1
		if a.current >= len(a.recipients) {
			a.state = stateDone
			return a, tea.Quit
		}
		return a, a.sendCmd(a.current)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if a.state != stateDone {
				a.state = stateAborted
			}
			return a, tea.Quit
		case "n", "q", "esc":
			if a.state == stateConfirm {
				a.state = stateAborted
				return a, tea.Quit
			}
		case "y", "enter":
			if a.state == stateConfirm {
				return a.start()
			}
		}
	}
	return a, nil
}

func (a *App) start() (tea.Model, tea.Cmd) {
	if len(a.recipients) == 0 {
		a.state = stateDone
		return a, tea.Quit
	}
	a.state = stateSending
	a.current = 0
	return a, tea.Batch(a.spinner.Tick, a.sendCmd(0))
}

func (a *App) sendCmd(i int) tea.Cmd {
	ctx, send := a.ctx, a.send
	return func() tea.Msg {
		return sentMsg{index: i, err: send(ctx, i)}
	}
}

// Aborted reports whether the user declined before anything was sent or
// interrupted the run.
func (a *App) Aborted() bool {
	return a.state == stateAborted
}

// Done reports whether every recipient was attempted.
func (a *App) Done() bool {
	return a.state == stateDone
}

// Sent returns how many emails went out.
func (a *App) Sent() int {
	n := 0
	for i := 0; i < a.current && i < len(a.errs); i++ {
		if a.errs[i] == nil {
			n++
		}
	}
	return n
}

// Failed returns the recipients whose delivery returned an error.
func (a *App) Failed() []string {
	var out []string
	for i := 0; i < a.current && i < len(a.errs); i++ {
		if a.errs[i] != nil {
			out = append(out, a.recipients[i])
		}
	}
	return out
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D32"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0392B"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	promptStyle = lipgloss.NewStyle().Bold(true)
)

// View renders the current state.
func (a *App) View() string {
	var b strings.Builder
	title := "🎁 SECRET SANTA"
	if a.dryRun {
		title += " (dry run)"
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(a.summary)
	b.WriteString("\n\n")

	switch a.state {
	case stateConfirm:
		verb := "Send"
		if a.dryRun {
			verb = "Write"
		}
		b.WriteString(promptStyle.Render(fmt.Sprintf("%s %d emails? [y/N]", verb, len(a.recipients))))
	case stateAborted:
		b.WriteString(dimStyle.Render("Aborted."))
	default:
		b.WriteString(a.renderProgress())
	}
	if panel := a.renderLogPanel(); panel != "" {
		b.WriteString("\n\n")
		b.WriteString(panel)
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderProgress() string {
	lines := make([]string, 0, len(a.recipients))
	for i, name := range a.recipients {
		switch {
		case i < a.current && a.errs[i] != nil:
			lines = append(lines, errStyle.Render(fmt.Sprintf("✗ %s: %v", name, a.errs[i])))
		case i < a.current:
			lines = append(lines, okStyle.Render("✓ "+name))
		case i == a.current && a.state == stateSending:
			lines = append(lines, a.spinner.View()+" "+name)
		default:
			lines = append(lines, dimStyle.Render("· "+name))
		}
	}
	if a.state == stateDone {
		lines = append(lines, "", fmt.Sprintf("%d sent, %d failed", a.Sent(), len(a.Failed())))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, _ := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1)
	if a.width > 4 {
		style = style.Width(a.width - 4)
	}
	return style.Render(fmt.Sprintf("%s\n%s", head, body))
}
