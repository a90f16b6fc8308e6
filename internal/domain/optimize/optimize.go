// Package optimize condenses team telemetry into a bounded payload, estimates
// its token cost, plans batching and scores teams against weighted priorities.
package optimize

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/vocab"
)

const (
	defaultNoteLimit = 100
	medianMinSamples = 3
)

// Optimizer is stateless apart from its configuration and safe for concurrent use.
type Optimizer struct {
	vocab     *vocab.Vocabulary
	noteLimit int
}

// New creates an Optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		vocab:     vocab.Default(),
		noteLimit: defaultNoteLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CondensedRecord is the bounded per-team payload sent to the oracle.
type CondensedRecord struct {
	TeamNumber int                `json:"team_number"`
	Nickname   string             `json:"nickname"`
	Metrics    map[string]float64 `json:"metrics"`
	Ratings    map[string]float64 `json:"ratings,omitempty"` // keyed with model.RatingPrefix
	Extra      map[string]float64 `json:"extra,omitempty"`   // numeric raw top-level fields
	Notes      []string           `json:"notes,omitempty"`
}

// Flat returns the record as one flat object whose keys are the field names
// the oracle is allowed to cite.
func (c CondensedRecord) Flat() map[string]any {
	out := make(map[string]any, len(c.Metrics)+len(c.Ratings)+len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	for k, v := range c.Ratings {
		out[k] = v
	}
	for k, v := range c.Metrics {
		out[k] = v
	}
	out["team_number"] = c.TeamNumber
	out["nickname"] = c.Nickname
	if len(c.Notes) > 0 {
		out["notes"] = c.Notes[0]
	}
	return out
}

// Condense reduces records to bounded payload entries. Essential metrics with
// per-match history are replaced by their median (three or more samples) or
// mean, every value is rounded to two decimals, ratings are flattened under
// model.RatingPrefix and at most one note of at most the note limit is kept.
func (o *Optimizer) Condense(records []model.TeamRecord) []CondensedRecord {
	out := make([]CondensedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, o.condenseOne(r))
	}
	return out
}

func (o *Optimizer) condenseOne(r model.TeamRecord) CondensedRecord {
	c := CondensedRecord{
		TeamNumber: r.TeamNumber,
		Nickname:   r.Nickname,
		Metrics:    make(map[string]float64, len(r.Metrics)),
	}
	for k, v := range r.Metrics {
		if finite(v) {
			c.Metrics[k] = Round2(v)
		}
	}

	if len(r.Matches) > 0 {
		for _, m := range o.vocab.EssentialMetrics {
			samples := collect(r.Matches, m)
			if len(samples) == 0 {
				continue
			}
			c.Metrics[m] = Round2(central(samples))
		}
	}

	if len(r.Rating) > 0 {
		c.Ratings = make(map[string]float64, len(r.Rating))
		for k, v := range r.Rating {
			if finite(v) {
				c.Ratings[model.RatingPrefix+k] = Round2(v)
			}
		}
	}

	for k, v := range r.Extra {
		if o.vocab.IsExcluded(k) {
			continue
		}
		if _, taken := c.Metrics[k]; taken {
			continue
		}
		f, ok := model.ToFloat(v)
		if !ok {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]float64)
		}
		c.Extra[k] = Round2(f)
	}

	for _, n := range r.Notes {
		if n = strings.TrimSpace(n); n != "" {
			c.Notes = []string{truncateRunes(n, o.noteLimit)}
			break
		}
	}
	return c
}

// CalculateWeightedScore returns the weight-averaged value of the priorities
// that resolve on c, rounded to two decimals, or exactly 0 when none resolve.
// A priority id is looked up in metrics, ratings, ratings with the rating
// prefix applied, numeric extras, and finally through the score alias table.
func (o *Optimizer) CalculateWeightedScore(c CondensedRecord, priorities []model.Priority) float64 {
	var sum, total float64
	for _, p := range priorities {
		if p.Weight <= 0 {
			continue
		}
		v, ok := o.resolve(c, p.ID)
		if !ok {
			continue
		}
		sum += v * p.Weight
		total += p.Weight
	}
	if total == 0 {
		return 0
	}
	return Round2(sum / total)
}

func (o *Optimizer) resolve(c CondensedRecord, id string) (float64, bool) {
	if v, ok := lookup(c, id); ok {
		return v, true
	}
	for _, alias := range o.vocab.Aliases(id) {
		if v, ok := lookup(c, alias); ok {
			return v, true
		}
	}
	return 0, false
}

func lookup(c CondensedRecord, id string) (float64, bool) {
	if v, ok := c.Metrics[id]; ok {
		return v, true
	}
	if v, ok := c.Ratings[id]; ok {
		return v, true
	}
	if v, ok := c.Ratings[model.RatingPrefix+id]; ok {
		return v, true
	}
	if v, ok := c.Extra[id]; ok {
		return v, true
	}
	return 0, false
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func collect(matches []map[string]float64, metric string) []float64 {
	var out []float64
	for _, m := range matches {
		if v, ok := m[metric]; ok && finite(v) {
			out = append(out, v)
		}
	}
	return out
}

func central(samples []float64) float64 {
	if len(samples) < medianMinSamples {
		var sum float64
		for _, s := range samples {
			sum += s
		}
		return sum / float64(len(samples))
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
