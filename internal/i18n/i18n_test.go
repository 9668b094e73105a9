package i18n

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestEnglishPhrases(t *testing.T) {
	tr, err := New("en")
	if err != nil {
		t.Fatalf("New(en): %v", err)
	}
	cases := []struct{ got, want string }{
		{tr.AssignmentText(1), "is your Secret Santa assignment"},
		{tr.AssignmentText(2), "are your Secret Santa assignments"},
		{tr.Round(2), "Round 2"},
		{tr.Budget("50"), "(Budget: 50)"},
		{tr.Greeting("Alice"), "Hello Alice!"},
		{tr.Subject(2025), "Secret Santa 2025"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("got %q, want %q", tc.got, tc.want)
		}
	}
}

func TestGermanPhrases(t *testing.T) {
	tr, err := New("de")
	if err != nil {
		t.Fatalf("New(de): %v", err)
	}
	if got := tr.AssignmentText(1); got != "ist dein Wichtelauftrag" {
		t.Fatalf("singular = %q", got)
	}
	if got := tr.AssignmentText(3); got != "sind deine Wichtelaufträge" {
		t.Fatalf("plural = %q", got)
	}
	if got := tr.Round(1); got != "Runde 1" {
		t.Fatalf("round = %q", got)
	}
	if got := tr.Greeting("Bob"); got != "Hey Bob!" {
		t.Fatalf("greeting = %q", got)
	}
	if got := tr.Footer(); got != "Beste automatisierte Grüße" {
		t.Fatalf("footer = %q", got)
	}
}

func TestRegionalTagsResolveToBaseLanguage(t *testing.T) {
	tr, err := New("de-AT")
	if err != nil {
		t.Fatalf("New(de-AT): %v", err)
	}
	if tr.Language() != "de" {
		t.Fatalf("language = %q, want de", tr.Language())
	}
}

func TestUnsupportedLanguage(t *testing.T) {
	_, err := New("fr")
	if err == nil {
		t.Fatalf("expected error for unsupported language")
	}
	if !strings.Contains(err.Error(), "de, en") {
		t.Fatalf("error should list available languages: %v", err)
	}
	if IsSupported("fr") || IsSupported("not a tag!") {
		t.Fatalf("IsSupported should reject fr and malformed tags")
	}
	if got := strings.Join(Supported(), ","); got != "de,en" {
		t.Fatalf("Supported() = %s", got)
	}
}

func TestLoadFromFSRejectsIncompleteLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": &fstest.MapFile{Data: []byte("locale: en\nmessages:\n  round: \"Round %d\"\n")},
	}
	if _, err := LoadFromFS(fsys); err == nil {
		t.Fatalf("expected missing key error")
	}
	mismatched := fstest.MapFS{
		"locales/en.yaml": &fstest.MapFile{Data: []byte("locale: de\nmessages: {}\n")},
	}
	if _, err := LoadFromFS(mismatched); err == nil {
		t.Fatalf("expected locale/file mismatch error")
	}
}
