package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/okian/draftrank/internal/domain/model"
)

// Recognised keys of a team object. Everything else is kept in Extra.
var (
	numberKeys   = []string{"team_number", "team", "teamNumber"}
	nicknameKeys = []string{"nickname", "name", "team_name"}
	ratingKeys   = []string{"rating", "ratings", "epa"}
	notesKeys    = []string{"notes", "scouting_notes"}
)

const (
	metricsKey = "metrics"
	matchesKey = "matches"
)

// Decode parses a dataset document. Three layouts are accepted: an array of
// team objects, an object with a "teams" array, and an object keyed by team
// number. Records are returned sorted by team number; a repeated team keeps
// its first occurrence.
func Decode(data []byte) ([]model.TeamRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	var raws []map[string]any
	switch v := doc.(type) {
	case []any:
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is not an object", ErrInvalidRecord, i)
			}
			raws = append(raws, obj)
		}
	case map[string]any:
		if teams, ok := v["teams"].([]any); ok {
			return Decode(mustMarshal(teams))
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj, ok := v[k].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: entry %q is not an object", ErrInvalidRecord, k)
			}
			if _, has := lookup(obj, numberKeys); !has {
				obj["team_number"] = k
			}
			raws = append(raws, obj)
		}
	default:
		return nil, fmt.Errorf("%w: dataset must be an array or an object", ErrInvalidRecord)
	}

	seen := make(map[int]struct{}, len(raws))
	out := make([]model.TeamRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[rec.TeamNumber]; dup {
			continue
		}
		seen[rec.TeamNumber] = struct{}{}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamNumber < out[j].TeamNumber })
	return out, nil
}

func decodeRecord(raw map[string]any) (model.TeamRecord, error) {
	var rec model.TeamRecord

	v, ok := lookup(raw, numberKeys)
	if !ok {
		return rec, fmt.Errorf("%w: missing team number", ErrInvalidRecord)
	}
	n, err := teamNumber(plain(v))
	if err != nil || n < 1 {
		return rec, fmt.Errorf("%w: team number %v", ErrInvalidRecord, v)
	}
	rec.TeamNumber = n

	if v, ok := lookup(raw, nicknameKeys); ok {
		rec.Nickname = strings.TrimSpace(cast.ToString(v))
	}

	consumed := map[string]struct{}{metricsKey: {}, matchesKey: {}}
	for _, group := range [][]string{numberKeys, nicknameKeys, ratingKeys, notesKeys} {
		for _, k := range group {
			consumed[k] = struct{}{}
		}
	}

	extra := make(map[string]any)
	if m, ok := raw[metricsKey].(map[string]any); ok {
		rec.Metrics = make(map[string]float64, len(m))
		for k, v := range m {
			if f, ok := model.ToFloat(plain(v)); ok {
				rec.Metrics[k] = f
			} else {
				extra[k] = plain(v)
			}
		}
	}
	if v, ok := lookup(raw, ratingKeys); ok {
		if m, isObj := v.(map[string]any); isObj {
			rec.Rating = numericOnly(m)
		} else if f, isNum := model.ToFloat(plain(v)); isNum {
			rec.Rating = map[string]float64{"value": f}
		}
	}
	if list, ok := raw[matchesKey].([]any); ok {
		for _, item := range list {
			if m, isObj := item.(map[string]any); isObj {
				rec.Matches = append(rec.Matches, numericOnly(m))
			}
		}
	}
	if v, ok := lookup(raw, notesKeys); ok {
		rec.Notes = notes(v)
	}

	for k, v := range raw {
		if _, skip := consumed[k]; skip {
			continue
		}
		if _, collides := rec.Metrics[k]; collides {
			continue
		}
		extra[k] = plain(v)
	}
	if len(extra) > 0 {
		rec.Extra = extra
	}
	return rec, nil
}

func teamNumber(v any) (int, error) {
	if s, ok := v.(string); ok {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	return cast.ToIntE(v)
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func numericOnly(m map[string]any) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if f, ok := model.ToFloat(plain(v)); ok {
			out[k] = f
		}
	}
	return out
}

func notes(v any) []string {
	var items []any
	switch n := plain(v).(type) {
	case []any:
		items = n
	default:
		items = []any{n}
	}
	var out []string
	for _, item := range items {
		if s := strings.TrimSpace(cast.ToString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// plain turns json.Number into float64 (or int64 when exact) and leaves
// every other value untouched.
func plain(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = plain(item)
		}
		return out
	}
	return v
}

func mustMarshal(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
