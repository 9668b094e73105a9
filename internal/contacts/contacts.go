// Package contacts maps participant names to email addresses.
package contacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"sort"
	"strings"
)

// ErrMissingContact indicates a participant has no address on file.
var ErrMissingContact = errors.New("contacts: missing address")

// Book is a name -> address lookup loaded from contacts.json.
type Book struct {
	addresses map[string]string
}

// Load reads a JSON object of the form {"Alice": "alice@example.com"}.
func Load(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("contacts: read %s: %w", path, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("contacts: parse %s: %w", path, err)
	}
	return New(raw)
}

// New validates raw and returns a Book. Addresses are lowercased; display
// names are dropped.
func New(raw map[string]string) (*Book, error) {
	book := &Book{addresses: make(map[string]string, len(raw))}
	for name, address := range raw {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("contacts: blank name for %q", address)
		}
		parsed, err := mail.ParseAddress(strings.TrimSpace(address))
		if err != nil {
			return nil, fmt.Errorf("contacts: %s: invalid address %q: %w", trimmed, address, err)
		}
		book.addresses[trimmed] = strings.ToLower(parsed.Address)
	}
	return book, nil
}

// Lookup returns the address for name.
func (b *Book) Lookup(name string) (string, bool) {
	if b == nil {
		return "", false
	}
	address, ok := b.addresses[name]
	return address, ok
}

// Len returns the number of contacts.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.addresses)
}

// Require checks that every name has an address and reports all missing
// names at once.
func (b *Book) Require(names []string) error {
	var missing []string
	for _, name := range names {
		if _, ok := b.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w for %s", ErrMissingContact, strings.Join(missing, ", "))
}
