// Package vocab holds the versioned synonym, alias and category tables used
// to reconcile free-form metric names with the dataset schema.
package vocab

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var embedded []byte

// ErrInvalidVocabulary is returned when a vocabulary document is unusable.
var ErrInvalidVocabulary = errors.New("invalid vocabulary")

// Category groups field-name patterns with the narrative words that select them.
type Category struct {
	Key      string   `yaml:"key"`
	Patterns []string `yaml:"patterns"`
	Triggers []string `yaml:"triggers"`
}

// Vocabulary is the full set of tunable tables.
type Vocabulary struct {
	Version          string              `yaml:"version"`
	Synonyms         map[string][]string `yaml:"synonyms"`
	ScoreAliases     map[string][]string `yaml:"score_aliases"`
	Categories       []Category          `yaml:"categories"`
	PriorityMetrics  []string            `yaml:"priority_metrics"`
	EssentialMetrics []string            `yaml:"essential_metrics"`
	ExcludedFields   []string            `yaml:"excluded_fields"`

	excluded map[string]struct{}
}

var (
	defaultOnce sync.Once
	defaultVoc  *Vocabulary
)

// Default returns the embedded vocabulary.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		v, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("embedded vocabulary: %v", err))
		}
		defaultVoc = v
	})
	return defaultVoc
}

// Load decodes a vocabulary document from r.
func Load(r io.Reader) (*Vocabulary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return Parse(data)
}

// LoadFile decodes a vocabulary document from path.
func LoadFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Parse decodes and normalizes a YAML vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVocabulary, err)
	}
	if strings.TrimSpace(v.Version) == "" {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidVocabulary)
	}
	v.normalize()
	return &v, nil
}

func (v *Vocabulary) normalize() {
	v.Synonyms = lowerKeys(v.Synonyms)
	v.ScoreAliases = lowerKeys(v.ScoreAliases)
	for i := range v.Categories {
		v.Categories[i].Key = strings.ToLower(v.Categories[i].Key)
		v.Categories[i].Patterns = lowerAll(v.Categories[i].Patterns)
		v.Categories[i].Triggers = lowerAll(v.Categories[i].Triggers)
	}
	v.excluded = make(map[string]struct{}, len(v.ExcludedFields))
	for _, f := range v.ExcludedFields {
		v.excluded[strings.ToLower(f)] = struct{}{}
	}
}

// SearchTerms returns the substrings to look for when resolving candidate.
// Unknown candidates search for themselves.
func (v *Vocabulary) SearchTerms(candidate string) []string {
	key := strings.ToLower(strings.TrimSpace(candidate))
	if terms, ok := v.Synonyms[key]; ok && len(terms) > 0 {
		return terms
	}
	if key == "" {
		return nil
	}
	return []string{key}
}

// Aliases returns canonical metric names for a generic priority term.
func (v *Vocabulary) Aliases(term string) []string {
	return v.ScoreAliases[strings.ToLower(strings.TrimSpace(term))]
}

// IsExcluded reports whether field is an identity or administrative field.
func (v *Vocabulary) IsExcluded(field string) bool {
	_, ok := v.excluded[strings.ToLower(field)]
	return ok
}

func lowerKeys(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, vals := range in {
		out[strings.ToLower(k)] = lowerAll(vals)
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
