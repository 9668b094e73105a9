// internal/config/config.go
//
// This package loads the draw configuration (draw.yaml by default) and the
// SMTP secrets that never belong in that file.
// Relative paths inside draw.yaml are resolved against the file's directory.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/secret-santa/internal/i18n"
	"github.com/kingrea/secret-santa/internal/matcher"
)

const (
	// DefaultConfigFile is read when no -config flag is given.
	DefaultConfigFile = "draw.yaml"

	// StateDir holds logs, debug artifacts and the archive next to draw.yaml.
	StateDir = ".santa"

	defaultLanguage     = "en"
	defaultContactsFile = "contacts.json"
	defaultSMTPHost     = "smtp.gmail.com"
	defaultSMTPPort     = 465
)

const exampleConfigYAML = `# secret santa draw configuration
year: 2025

# How often the whole draw is restarted when a round has no valid pairing.
max_attempts: 20

# Forbid A -> B when B -> A was already drawn (in this or an earlier round).
prevent_reciprocal_pairs: true

# Name -> email address book, relative to this file.
contacts: contacts.json

# Full pairings are written here for troubleshooting. Keep it private.
debug_dir: .santa/debug

archive:
  path: .santa/archive.db
  # Avoid receivers drawn in the last N years. 0 disables.
  avoid_previous_years: 1

email:
  subject: "Secret Santa 2025"
  sender: "Secret Santa Bot <santa@example.com>"
  language: en
  smtp_host: smtp.gmail.com
  smtp_port: 465
  username: santa@example.com
  # The password is read from SANTA_SMTP_PASSWORD (environment or .env).

rounds:
  - participants: [Alice, Bob, Charlie, David]
    exclusions:
      Alice: [Bob]
    budget: 50
`

// RoundConfig declares one round inside draw.yaml.
type RoundConfig struct {
	Participants []string            `yaml:"participants"`
	Exclusions   map[string][]string `yaml:"exclusions,omitempty"`
	Budget       string              `yaml:"budget,omitempty"`
}

// EmailConfig configures message rendering and delivery.
type EmailConfig struct {
	Subject  string `yaml:"subject,omitempty"`
	Sender   string `yaml:"sender"`
	Language string `yaml:"language,omitempty"`
	SMTPHost string `yaml:"smtp_host,omitempty"`
	SMTPPort int    `yaml:"smtp_port,omitempty"`
	Username string `yaml:"username,omitempty"`

	// Password is only ever populated from Secrets.
	Password string `yaml:"-"`
}

// ArchiveConfig points at the SQLite archive of previous draws.
type ArchiveConfig struct {
	Path               string `yaml:"path,omitempty"`
	AvoidPreviousYears int    `yaml:"avoid_previous_years,omitempty"`
}

// DrawConfig models draw.yaml.
type DrawConfig struct {
	Year                   int           `yaml:"year"`
	MaxAttempts            int           `yaml:"max_attempts,omitempty"`
	PreventReciprocalPairs bool          `yaml:"prevent_reciprocal_pairs"`
	Contacts               string        `yaml:"contacts,omitempty"`
	DebugDir               string        `yaml:"debug_dir,omitempty"`
	Archive                ArchiveConfig `yaml:"archive,omitempty"`
	Email                  EmailConfig   `yaml:"email"`
	Rounds                 []RoundConfig `yaml:"rounds"`
}

// Secrets are read from the environment, optionally seeded from a .env file
// next to draw.yaml.
type Secrets struct {
	SMTPPassword string `env:"SANTA_SMTP_PASSWORD"`
	SMTPUsername string `env:"SANTA_SMTP_USERNAME"`
	SMTPHost     string `env:"SANTA_SMTP_HOST"`
	SMTPPort     int    `env:"SANTA_SMTP_PORT"`
}

// Config holds the runtime configuration for one draw.
type Config struct {
	// Path is the absolute location of draw.yaml.
	Path string

	// BaseDir is the directory containing draw.yaml.
	BaseDir string

	Draw DrawConfig
}

// Load reads, normalizes and validates the draw configuration at path.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", abs, err)
	}

	var parsed DrawConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}

	cfg := &Config{Path: abs, BaseDir: filepath.Dir(abs), Draw: parsed}
	cfg.Draw.applyDefaults()
	cfg.Draw.normalize(cfg.BaseDir)
	if err := cfg.applySecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Draw.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadSecrets reads SMTP secrets from the environment after loading the
// optional .env file in dir. A missing .env is not an error.
func LoadSecrets(dir string) (Secrets, error) {
	dotenv := filepath.Join(dir, ".env")
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Secrets{}, fmt.Errorf("config: load %s: %w", dotenv, err)
	}
	var secrets Secrets
	if err := env.Parse(&secrets); err != nil {
		return Secrets{}, fmt.Errorf("config: parse env: %w", err)
	}
	return secrets, nil
}

// WriteExample writes a commented starter draw.yaml. Existing files are left
// untouched and reported as an error.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure dir: %w", err)
		}
	}
	return os.WriteFile(path, []byte(exampleConfigYAML), 0o644)
}

// StateDir returns the directory holding logs and other run state.
func (c *Config) StateDir() string {
	return filepath.Join(c.BaseDir, StateDir)
}

// LogPath returns the path of the draw journal.
func (c *Config) LogPath() string {
	return filepath.Join(c.StateDir(), "logs", "draw.log")
}

// ContactsPath returns the resolved contacts file.
func (c *Config) ContactsPath() string {
	return c.Draw.Contacts
}

// DebugDir returns the resolved directory for debug artifacts.
func (c *Config) DebugDir() string {
	return c.Draw.DebugDir
}

// ArchivePath returns the resolved archive database, or "" when disabled.
func (c *Config) ArchivePath() string {
	return c.Draw.Archive.Path
}

// Language returns the configured message language.
func (c *Config) Language() string {
	return c.Draw.Email.Language
}

// Rounds converts the configured rounds into matcher input.
func (c *Config) Rounds() []matcher.Round {
	out := make([]matcher.Round, 0, len(c.Draw.Rounds))
	for _, rc := range c.Draw.Rounds {
		round := matcher.Round{Budget: rc.Budget}
		for _, name := range rc.Participants {
			round.Participants = append(round.Participants, matcher.Participant(name))
		}
		if len(rc.Exclusions) > 0 {
			round.Exclusions = make(map[matcher.Participant][]matcher.Participant, len(rc.Exclusions))
			for giver, excluded := range rc.Exclusions {
				for _, receiver := range excluded {
					round.Exclusions[matcher.Participant(giver)] = append(round.Exclusions[matcher.Participant(giver)], matcher.Participant(receiver))
				}
			}
		}
		out = append(out, round)
	}
	return out
}

// Participants returns every distinct participant across all rounds, in
// order of first appearance.
func (c *Config) Participants() []string {
	seen := map[string]bool{}
	var out []string
	for _, rc := range c.Draw.Rounds {
		for _, name := range rc.Participants {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func (c *Config) applySecrets() error {
	secrets, err := LoadSecrets(c.BaseDir)
	if err != nil {
		return err
	}
	email := &c.Draw.Email
	email.Password = secrets.SMTPPassword
	if secrets.SMTPUsername != "" {
		email.Username = secrets.SMTPUsername
	}
	if secrets.SMTPHost != "" {
		email.SMTPHost = secrets.SMTPHost
	}
	if secrets.SMTPPort != 0 {
		email.SMTPPort = secrets.SMTPPort
	}
	return nil
}

func (dc *DrawConfig) applyDefaults() {
	if dc.Year == 0 {
		dc.Year = time.Now().Year()
	}
	if dc.MaxAttempts == 0 {
		dc.MaxAttempts = matcher.DefaultMaxAttempts
	}
	if strings.TrimSpace(dc.Contacts) == "" {
		dc.Contacts = defaultContactsFile
	}
	if strings.TrimSpace(dc.DebugDir) == "" {
		dc.DebugDir = filepath.Join(StateDir, "debug")
	}
	if strings.TrimSpace(dc.Email.Language) == "" {
		dc.Email.Language = defaultLanguage
	}
	if strings.TrimSpace(dc.Email.SMTPHost) == "" {
		dc.Email.SMTPHost = defaultSMTPHost
	}
	if dc.Email.SMTPPort == 0 {
		dc.Email.SMTPPort = defaultSMTPPort
	}
}

func (dc *DrawConfig) normalize(base string) {
	dc.Contacts = resolvePath(base, dc.Contacts)
	dc.DebugDir = resolvePath(base, dc.DebugDir)
	dc.Archive.Path = resolvePath(base, dc.Archive.Path)
	dc.Email.Language = strings.ToLower(strings.TrimSpace(dc.Email.Language))
	dc.Email.Subject = strings.TrimSpace(dc.Email.Subject)
	dc.Email.Sender = strings.TrimSpace(dc.Email.Sender)
	dc.Email.SMTPHost = strings.TrimSpace(dc.Email.SMTPHost)
	dc.Email.Username = strings.TrimSpace(dc.Email.Username)
	for i := range dc.Rounds {
		dc.Rounds[i].normalize()
	}
}

func (dc *DrawConfig) validate() error {
	if dc.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1")
	}
	if dc.Archive.AvoidPreviousYears < 0 {
		return fmt.Errorf("archive.avoid_previous_years must be >= 0")
	}
	if !i18n.IsSupported(dc.Email.Language) {
		return fmt.Errorf("email.language %q is not supported (available: %s)", dc.Email.Language, strings.Join(i18n.Supported(), ", "))
	}
	if dc.Email.SMTPPort < 1 || dc.Email.SMTPPort > 65535 {
		return fmt.Errorf("email.smtp_port %d is out of range", dc.Email.SMTPPort)
	}
	if len(dc.Rounds) == 0 {
		return fmt.Errorf("at least one round is required")
	}
	for i := range dc.Rounds {
		if err := dc.Rounds[i].validate(); err != nil {
			return fmt.Errorf("rounds[%d]: %w", i, err)
		}
	}
	return nil
}

func (rc *RoundConfig) normalize() {
	rc.Budget = strings.TrimSpace(rc.Budget)
	for i, name := range rc.Participants {
		rc.Participants[i] = strings.TrimSpace(name)
	}
	if len(rc.Exclusions) == 0 {
		return
	}
	normalized := make(map[string][]string, len(rc.Exclusions))
	for giver, excluded := range rc.Exclusions {
		key := strings.TrimSpace(giver)
		for _, receiver := range excluded {
			normalized[key] = append(normalized[key], strings.TrimSpace(receiver))
		}
	}
	rc.Exclusions = normalized
}

func (rc RoundConfig) validate() error {
	if len(rc.Participants) < 2 {
		return fmt.Errorf("at least two participants are required")
	}
	known := make(map[string]bool, len(rc.Participants))
	for _, name := range rc.Participants {
		if name == "" {
			return fmt.Errorf("participant name cannot be blank")
		}
		if known[name] {
			return fmt.Errorf("participant %q is listed twice", name)
		}
		known[name] = true
	}
	for giver, excluded := range rc.Exclusions {
		if !known[giver] {
			return fmt.Errorf("exclusions: %q is not a participant", giver)
		}
		for _, receiver := range excluded {
			if !known[receiver] {
				return fmt.Errorf("exclusions[%s]: %q is not a participant", giver, receiver)
			}
		}
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
