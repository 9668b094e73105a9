package draw

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/secret-santa/internal/archive"
	"github.com/kingrea/secret-santa/internal/config"
	"github.com/kingrea/secret-santa/internal/contacts"
	"github.com/kingrea/secret-santa/internal/i18n"
	"github.com/kingrea/secret-santa/internal/logbook"
	"github.com/kingrea/secret-santa/internal/mailer"
	"github.com/kingrea/secret-santa/internal/matcher"
	"github.com/kingrea/secret-santa/internal/report"
)

// ErrMissingPassword indicates SMTP delivery was requested without a password.
var ErrMissingPassword = errors.New("draw: SANTA_SMTP_PASSWORD is not set")

// Prepared is a generated draw whose emails have not been sent yet.
type Prepared struct {
	Draw      report.Draw
	Messages  []mailer.Message
	DebugPath string
}

// Recipients returns the names of everyone who will get an email.
func (p *Prepared) Recipients() []string {
	out := make([]string, len(p.Messages))
	for i, msg := range p.Messages {
		out[i] = msg.Name
	}
	return out
}

// Delivery is the outcome of sending one message.
type Delivery struct {
	Name string
	To   string
	Err  error
}

// DeliveryReport summarizes a complete delivery run.
type DeliveryReport struct {
	Sent   int
	Failed []Delivery
}

// Runner executes draws for one configuration.
type Runner struct {
	cfg     *config.Config
	journal *logbook.Logbook
	archive *archive.Store
	sender  mailer.Sender
	dryRun  bool
	rng     *rand.Rand
	now     func() time.Time
	newID   func() string
}

// Option customizes a Runner during construction.
type Option func(*Runner)

// WithSender overrides the sender built from the email configuration.
func WithSender(sender mailer.Sender) Option {
	return func(r *Runner) {
		r.sender = sender
	}
}

// WithDryRun writes every email into dir instead of sending it. Dry runs
// are never archived.
func WithDryRun(dir string) Option {
	return func(r *Runner) {
		r.dryRun = true
		r.sender = &mailer.DirSender{Dir: dir}
	}
}

// WithSeed makes the draw reproducible.
func WithSeed(seed int64) Option {
	return func(r *Runner) {
		r.rng = rand.New(rand.NewSource(seed))
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		r.now = clock
	}
}

// WithIDGenerator overrides how draw identifiers are generated.
func WithIDGenerator(gen func() string) Option {
	return func(r *Runner) {
		r.newID = gen
	}
}

// WithJournal overrides the logbook opened at the config's log path.
func WithJournal(journal *logbook.Logbook) Option {
	return func(r *Runner) {
		r.journal = journal
	}
}

// New builds a Runner and opens its journal and archive.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.journal == nil {
		journal, err := logbook.New(cfg.LogPath())
		if err != nil {
			return nil, err
		}
		r.journal = journal
	}
	if r.sender == nil {
		email := cfg.Draw.Email
		if email.Password == "" {
			return nil, ErrMissingPassword
		}
		r.sender = &mailer.SMTPSender{
			Host:     email.SMTPHost,
			Port:     email.SMTPPort,
			Username: email.Username,
			Password: email.Password,
		}
	}
	if path := cfg.ArchivePath(); path != "" {
		store, err := archive.Open(path)
		if err != nil {
			return nil, err
		}
		r.archive = store
	}
	return r, nil
}

// Close releases the archive.
func (r *Runner) Close() error {
	return r.archive.Close()
}

// Journal returns the runner's logbook.
func (r *Runner) Journal() *logbook.Logbook {
	return r.journal
}

// Prepare generates a draw and renders its emails without sending them.
func (r *Runner) Prepare(ctx context.Context) (*Prepared, error) {
	cfg := r.cfg
	book, err := contacts.Load(cfg.ContactsPath())
	if err != nil {
		return nil, err
	}
	if err := book.Require(cfg.Participants()); err != nil {
		return nil, err
	}
	tr, err := i18n.New(cfg.Language())
	if err != nil {
		return nil, err
	}
	seed, err := r.seedHistory(ctx)
	if err != nil {
		return nil, err
	}

	opts := []matcher.Option{
		matcher.WithMaxAttempts(cfg.Draw.MaxAttempts),
		matcher.WithPreventReciprocal(cfg.Draw.PreventReciprocalPairs),
		matcher.WithSeedHistory(seed),
		matcher.WithLogf(r.journal.Warn),
	}
	if r.rng != nil {
		opts = append(opts, matcher.WithRand(r.rng))
	}
	results, attempts, err := matcher.New(opts...).GeneratePairings(cfg.Rounds())
	if err != nil {
		r.journal.Error("draw failed: %v", err)
		return nil, err
	}

	d := report.Draw{
		ID:       r.newID(),
		Year:     cfg.Draw.Year,
		Attempts: attempts,
		Created:  r.now(),
		Language: tr.Language(),
		Rounds:   results,
	}
	debugPath, err := report.WriteDebug(cfg.DebugDir(), d)
	if err != nil {
		return nil, err
	}
	messages, err := mailer.Compose(results, book, tr, mailer.Settings{
		Subject: cfg.Draw.Email.Subject,
		Sender:  cfg.Draw.Email.Sender,
		Year:    cfg.Draw.Year,
		DrawID:  d.ID,
	})
	if err != nil {
		return nil, err
	}
	r.journal.Info("draw %s prepared: %d rounds, %d emails, attempt %d", d.ID, len(results), len(messages), attempts)
	return &Prepared{Draw: d, Messages: messages, DebugPath: debugPath}, nil
}

// Send delivers one message and journals the outcome.
func (r *Runner) Send(ctx context.Context, msg mailer.Message) error {
	if err := r.sender.Send(ctx, msg); err != nil {
		r.journal.Error("email to %s failed: %v", msg.Name, err)
		return err
	}
	r.journal.Info("email to %s delivered", msg.Name)
	return nil
}

// Complete archives the draw once every email went out. Dry runs and draws
// with failed deliveries are not archived.
func (r *Runner) Complete(ctx context.Context, p *Prepared, failed int) error {
	switch {
	case failed > 0:
		r.journal.Warn("draw %s not archived: %d emails failed", p.Draw.ID, failed)
		return nil
	case r.dryRun:
		r.journal.Info("draw %s finished (dry run)", p.Draw.ID)
		return nil
	case r.archive == nil:
		r.journal.Info("draw %s finished", p.Draw.ID)
		return nil
	}
	if err := r.archive.Record(ctx, p.Draw.ID, p.Draw.Year, p.Draw.Rounds, p.Draw.Created); err != nil {
		r.journal.Error("archive draw %s: %v", p.Draw.ID, err)
		return err
	}
	r.journal.Info("draw %s finished and archived", p.Draw.ID)
	return nil
}

// Deliver sends every message in order, reporting each outcome to progress
// (which may be nil), then calls Complete.
func (r *Runner) Deliver(ctx context.Context, p *Prepared, progress func(Delivery)) (DeliveryReport, error) {
	var rep DeliveryReport
	for _, msg := range p.Messages {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		d := Delivery{Name: msg.Name, To: msg.To, Err: r.Send(ctx, msg)}
		if d.Err != nil {
			rep.Failed = append(rep.Failed, d)
		} else {
			rep.Sent++
		}
		if progress != nil {
			progress(d)
		}
	}
	if err := r.Complete(ctx, p, len(rep.Failed)); err != nil {
		return rep, err
	}
	if len(rep.Failed) > 0 {
		names := make([]string, len(rep.Failed))
		for i, f := range rep.Failed {
			names[i] = f.Name
		}
		return rep, fmt.Errorf("draw: delivery failed for %s", strings.Join(names, ", "))
	}
	return rep, nil
}

func (r *Runner) seedHistory(ctx context.Context) (*matcher.History, error) {
	years := r.cfg.Draw.Archive.AvoidPreviousYears
	if r.archive == nil || years == 0 {
		return nil, nil
	}
	history, err := r.archive.History(ctx, r.cfg.Draw.Year-years)
	if err != nil {
		return nil, err
	}
	if history.Len() > 0 {
		r.journal.Info("seeded history with %d archived pairs since %d", history.Len(), r.cfg.Draw.Year-years)
	}
	return history, nil
}
