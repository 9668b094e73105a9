// Package i18n provides the localized phrases used in assignment emails.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Message keys present in every locale file.
const (
	keyRound              = "round"
	keyBudget             = "budget"
	keyGreeting           = "greeting"
	keyAssignmentSingular = "assignment.singular"
	keyAssignmentPlural   = "assignment.plural"
	keyFooter             = "footer"
	keySubject            = "subject"
	keyDrawID             = "draw_id"
)

var requiredKeys = []string{
	keyRound, keyBudget, keyGreeting, keyAssignmentSingular,
	keyAssignmentPlural, keyFooter, keySubject, keyDrawID,
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle holds the messages of every loaded locale.
type Bundle struct {
	builder *catalog.Builder
	locales map[string]language.Tag
}

var defaultBundle = mustLoadEmbedded()

// LoadFromFS reads locales/*.yaml from fsys into a new bundle.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("i18n: glob locales: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("i18n: no locale files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{
		builder: catalog.NewBuilder(catalog.Fallback(language.English)),
		locales: map[string]language.Tag{},
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", p, err)
		}
		var file localeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", p, err)
		}
		if err := bundle.add(p, file); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

func (b *Bundle) add(p string, file localeFile) error {
	name := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if strings.TrimSpace(file.Locale) != name {
		return fmt.Errorf("i18n: %s: locale %q must match file name %q", p, file.Locale, name)
	}
	tag, err := language.Parse(name)
	if err != nil {
		return fmt.Errorf("i18n: %s: parse locale: %w", p, err)
	}
	for _, key := range requiredKeys {
		if _, ok := file.Messages[key]; !ok {
			return fmt.Errorf("i18n: %s: missing message %q", p, key)
		}
	}
	for key, msg := range file.Messages {
		if err := b.builder.SetString(tag, key, msg); err != nil {
			return fmt.Errorf("i18n: %s: set %q: %w", p, key, err)
		}
	}
	b.locales[name] = tag
	return nil
}

func mustLoadEmbedded() *Bundle {
	bundle, err := LoadFromFS(embeddedLocales)
	if err != nil {
		panic(err)
	}
	return bundle
}

// Supported returns the available language codes, sorted.
func Supported() []string {
	out := make([]string, 0, len(defaultBundle.locales))
	for name := range defaultBundle.locales {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsSupported reports whether lang (e.g. "de" or "de-AT") has a locale.
func IsSupported(lang string) bool {
	_, ok := defaultBundle.lookup(lang)
	return ok
}

func (b *Bundle) lookup(lang string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return language.Und, false
	}
	base, _ := tag.Base()
	resolved, ok := b.locales[base.String()]
	return resolved, ok
}

// Translator renders phrases for one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Translator for lang, or an error listing the available
// languages.
func New(lang string) (*Translator, error) {
	return defaultBundle.Translator(lang)
}

// Translator returns a Translator backed by this bundle.
func (b *Bundle) Translator(lang string) (*Translator, error) {
	tag, ok := b.lookup(lang)
	if !ok {
		names := make([]string, 0, len(b.locales))
		for name := range b.locales {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("i18n: language %q is not supported (available: %s)", lang, strings.Join(names, ", "))
	}
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b.builder)),
	}, nil
}

// Language returns the translator's language code.
func (t *Translator) Language() string {
	return t.tag.String()
}

// Round formats a round label such as "Round 2".
func (t *Translator) Round(n int) string {
	return t.printer.Sprintf(keyRound, n)
}

// Budget formats a budget suffix such as "(Budget: 50)".
func (t *Translator) Budget(budget string) string {
	return t.printer.Sprintf(keyBudget, budget)
}

// Greeting formats the salutation for name.
func (t *Translator) Greeting(name string) string {
	return t.printer.Sprintf(keyGreeting, name)
}

// AssignmentText returns the singular phrase for one assignment and the
// plural phrase otherwise.
func (t *Translator) AssignmentText(count int) string {
	if count == 1 {
		return t.printer.Sprintf(keyAssignmentSingular)
	}
	return t.printer.Sprintf(keyAssignmentPlural)
}

// Footer returns the email sign-off.
func (t *Translator) Footer() string {
	return t.printer.Sprintf(keyFooter)
}

// Subject returns the default email subject for year.
func (t *Translator) Subject(year int) string {
	// Passed as a string so the printer does not group digits.
	return t.printer.Sprintf(keySubject, strconv.Itoa(year))
}

// DrawIDLabel returns the label printed next to the draw identifier.
func (t *Translator) DrawIDLabel() string {
	return t.printer.Sprintf(keyDrawID)
}
