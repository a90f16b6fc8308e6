// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// RatingPrefix namespaces flattened external-rating fields.
const RatingPrefix = "rating_"

// TeamRecord is one team's performance telemetry as delivered by the dataset source.
type TeamRecord struct {
	TeamNumber int                  `json:"team_number"`
	Nickname   string               `json:"nickname"`
	Metrics    map[string]float64   `json:"metrics,omitempty"`
	Rating     map[string]float64   `json:"rating,omitempty"`  // external rating sub-object
	Matches    []map[string]float64 `json:"matches,omitempty"` // raw per-match history
	Notes      []string             `json:"notes,omitempty"`
	Extra      map[string]any       `json:"extra,omitempty"` // other raw top-level fields
}

// Fields returns the flattened field view of the record: metrics, rating
// fields under RatingPrefix, then extras that do not collide with either.
func (r TeamRecord) Fields() map[string]any {
	out := make(map[string]any, len(r.Metrics)+len(r.Rating)+len(r.Extra))
	for k, v := range r.Metrics {
		out[k] = v
	}
	for k, v := range r.Rating {
		out[RatingPrefix+k] = v
	}
	for k, v := range r.Extra {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

// NumericField returns the numeric value of a flattened field, if any.
func (r TeamRecord) NumericField(name string) (float64, bool) {
	if v, ok := r.Metrics[name]; ok {
		return ToFloat(v)
	}
	if strings.HasPrefix(name, RatingPrefix) {
		if v, ok := r.Rating[strings.TrimPrefix(name, RatingPrefix)]; ok {
			return ToFloat(v)
		}
	}
	if v, ok := r.Extra[name]; ok {
		return ToFloat(v)
	}
	return 0, false
}

// Clone returns a deep copy so callers can annotate without touching the source.
func (r TeamRecord) Clone() TeamRecord {
	c := r
	c.Metrics = cloneFloats(r.Metrics)
	c.Rating = cloneFloats(r.Rating)
	if r.Matches != nil {
		c.Matches = make([]map[string]float64, len(r.Matches))
		for i, m := range r.Matches {
			c.Matches[i] = cloneFloats(m)
		}
	}
	if r.Notes != nil {
		c.Notes = append([]string(nil), r.Notes...)
	}
	if r.Extra != nil {
		c.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

func cloneFloats(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ToFloat converts an untyped field value to float64. Booleans, empty
// strings, NaN and infinities are not numeric.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		if strings.TrimSpace(t) == "" {
			return 0, false
		}
		v = strings.TrimSpace(t)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Priority is a caller-weighted metric the ranking should favour.
type Priority struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
	Reason string  `json:"reason,omitempty"`
}

// IndexMap associates 1-based ordinals with team numbers for one request.
type IndexMap struct {
	byOrdinal []int
	byTeam    map[int]int
}

// NewIndexMap builds an index map in presentation order.
func NewIndexMap(teamNumbers []int) IndexMap {
	m := IndexMap{
		byOrdinal: append([]int(nil), teamNumbers...),
		byTeam:    make(map[int]int, len(teamNumbers)),
	}
	for i, n := range teamNumbers {
		m.byTeam[n] = i + 1
	}
	return m
}

// Len returns the number of mapped teams.
func (m IndexMap) Len() int { return len(m.byOrdinal) }

// Lookup returns the team number at ordinal, which is valid only in 1..Len().
func (m IndexMap) Lookup(ordinal int) (int, bool) {
	if ordinal < 1 || ordinal > len(m.byOrdinal) {
		return 0, false
	}
	return m.byOrdinal[ordinal-1], true
}

// Ordinal returns the 1-based position of a team number.
func (m IndexMap) Ordinal(teamNumber int) (int, bool) {
	o, ok := m.byTeam[teamNumber]
	return o, ok
}

// Entries returns ordinal -> team number pairs keyed by their string form,
// suitable for embedding in a prompt.
func (m IndexMap) Entries() map[string]int {
	out := make(map[string]int, len(m.byOrdinal))
	for i, n := range m.byOrdinal {
		out[fmt.Sprint(i+1)] = n
	}
	return out
}
