// Package extraction reconciles free-form metric names with the dataset
// schema and builds the comparison table shown next to a ranking.
package extraction

import (
	"regexp"
	"sort"
	"strings"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/vocab"
)

// Extraction limits.
const (
	maxNarrativeMetrics  = 8
	maxDiscoveredMetrics = 10
)

var wordPattern = regexp.MustCompile(`[a-z0-9_]+`)

// Extractor is stateless apart from its vocabulary and safe for concurrent use.
type Extractor struct {
	vocab *vocab.Vocabulary
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{vocab: vocab.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AvailableFields returns every non-identity field name across records, sorted.
func (e *Extractor) AvailableFields(records []model.TeamRecord) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		for name := range r.Fields() {
			if !e.vocab.IsExcluded(name) {
				set[name] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// NumericFields returns the available fields holding a numeric value in at
// least one record, sorted.
func (e *Extractor) NumericFields(records []model.TeamRecord) []string {
	var out []string
	for _, name := range e.AvailableFields(records) {
		if numericSomewhere(name, records) {
			out = append(out, name)
		}
	}
	return out
}

// FindMatchingField resolves candidate to a real field name: exact match,
// then synonym search terms, accepting the first field (in lexicographic
// order) that contains a term and is numeric in at least one record.
func (e *Extractor) FindMatchingField(candidate string, available map[string]struct{}, records []model.TeamRecord) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || e.vocab.IsExcluded(candidate) {
		return "", false
	}
	if _, ok := available[candidate]; ok && numericSomewhere(candidate, records) {
		return candidate, true
	}

	terms := e.vocab.SearchTerms(candidate)
	for _, field := range sortedKeys(available) {
		if e.vocab.IsExcluded(field) {
			continue
		}
		if containsAny(strings.ToLower(field), terms) && numericSomewhere(field, records) {
			return field, true
		}
	}
	return "", false
}

// ExtractMetricsFromNarrative mines field names out of free text. A numeric
// field is taken when its name appears as a word in the text, or when it
// belongs to a semantic category whose trigger words appear. At most eight
// fields are returned, without duplicates.
func (e *Extractor) ExtractMetricsFromNarrative(text string, records []model.TeamRecord) []string {
	lowerText := strings.ToLower(text)
	words := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(lowerText, -1) {
		words[w] = struct{}{}
	}
	if len(words) == 0 {
		return nil
	}

	var fired []vocab.Category
	for _, c := range e.vocab.Categories {
		for _, trig := range c.Triggers {
			if _, ok := words[trig]; ok {
				fired = append(fired, c)
				break
			}
		}
	}

	out := make([]string, 0, maxNarrativeMetrics)
	seen := make(map[string]struct{})
	for _, field := range e.NumericFields(records) {
		if len(out) == maxNarrativeMetrics {
			break
		}
		lower := strings.ToLower(field)
		if !containsWord(lowerText, lower) && !matchesCategory(lower, fired) {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}

// ExtractComparisonStats builds the comparison table. With suggested metrics
// each suggestion is resolved via FindMatchingField in order; with nil the
// numeric fields are discovered and ordered by the priority list followed by
// at most ten other fields in lexicographic order.
func (e *Extractor) ExtractComparisonStats(records []model.TeamRecord, suggested []string) model.ComparisonStatistics {
	var metrics []string
	if suggested != nil {
		metrics = e.resolveSuggested(records, suggested)
	} else {
		metrics = e.discover(records)
	}

	teams := make([]model.TeamStats, 0, len(records))
	for _, r := range records {
		stats := make(map[string]float64, len(metrics))
		for _, m := range metrics {
			if v, ok := r.NumericField(m); ok {
				stats[m] = v
			}
		}
		teams = append(teams, model.TeamStats{TeamNumber: r.TeamNumber, Nickname: r.Nickname, Stats: stats})
	}
	if metrics == nil {
		metrics = []string{}
	}
	return model.ComparisonStatistics{Teams: teams, Metrics: metrics}
}

func (e *Extractor) resolveSuggested(records []model.TeamRecord, suggested []string) []string {
	available := make(map[string]struct{})
	for _, f := range e.AvailableFields(records) {
		available[f] = struct{}{}
	}
	out := make([]string, 0, len(suggested))
	seen := make(map[string]struct{})
	for _, s := range suggested {
		field, ok := e.FindMatchingField(s, available, records)
		if !ok {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}

func (e *Extractor) discover(records []model.TeamRecord) []string {
	numeric := e.NumericFields(records)
	present := make(map[string]struct{}, len(numeric))
	for _, f := range numeric {
		present[f] = struct{}{}
	}

	out := make([]string, 0, len(numeric))
	taken := make(map[string]struct{})
	for _, p := range e.vocab.PriorityMetrics {
		if _, ok := present[p]; !ok {
			continue
		}
		if _, dup := taken[p]; dup {
			continue
		}
		taken[p] = struct{}{}
		out = append(out, p)
	}

	extra := 0
	for _, f := range numeric {
		if extra == maxDiscoveredMetrics {
			break
		}
		if _, ok := taken[f]; ok {
			continue
		}
		out = append(out, f)
		extra++
	}
	return out
}

func numericSomewhere(field string, records []model.TeamRecord) bool {
	for _, r := range records {
		if _, ok := r.NumericField(field); ok {
			return true
		}
	}
	return false
}

// containsWord reports whether term occurs in text without a word character
// directly before or after it. Terms may contain any characters.
func containsWord(text, term string) bool {
	if term == "" {
		return false
	}
	for from := 0; from <= len(text)-len(term); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(term)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func matchesCategory(field string, cats []vocab.Category) bool {
	for _, c := range cats {
		if containsAny(field, c.Patterns) {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
