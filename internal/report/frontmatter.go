package report

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("report: missing frontmatter")
	// ErrMalformedFrontMatter indicates the YAML block could not be parsed.
	ErrMalformedFrontMatter = errors.New("report: malformed frontmatter")
)

type envelope struct {
	Santa drawMetadata `yaml:"santa"`
}

type drawMetadata struct {
	Draw         string          `yaml:"draw"`
	Year         int             `yaml:"year"`
	Attempts     int             `yaml:"attempts"`
	Created      string          `yaml:"created"`
	Language     string          `yaml:"language,omitempty"`
	Participants int             `yaml:"participants"`
	Rounds       []roundMetadata `yaml:"rounds"`
}

type roundMetadata struct {
	Budget string            `yaml:"budget,omitempty"`
	Pairs  map[string]string `yaml:"pairs"`
}

// parseFrontMatter extracts the metadata block and body from a document that
// starts with `---` YAML fences.
func parseFrontMatter(content []byte) (envelope, []byte, error) {
	if len(content) == 0 {
		return envelope{}, nil, ErrMissingFrontMatter
	}
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return envelope{}, nil, ErrMissingFrontMatter
	}
	parts := bytes.SplitN(normalized[4:], []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return envelope{}, nil, ErrMalformedFrontMatter
	}
	var env envelope
	if err := yaml.Unmarshal(parts[0], &env); err != nil {
		return envelope{}, nil, fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
	}
	if env.Santa.Draw == "" {
		return envelope{}, nil, fmt.Errorf("%w: draw id is required", ErrMalformedFrontMatter)
	}
	return env, parts[1], nil
}

// writeFrontMatter renders metadata + body with YAML fences.
func writeFrontMatter(env envelope, body []byte) ([]byte, error) {
	if env.Santa.Draw == "" {
		return nil, fmt.Errorf("report: metadata missing draw id")
	}
	data, err := yaml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("report: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}
