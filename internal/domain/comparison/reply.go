package comparison

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/okian/draftrank/internal/domain/model"
)

// ReplyKind discriminates the decoded oracle reply shapes.
type ReplyKind int

// Reply kinds.
const (
	ReplyMalformed ReplyKind = iota
	ReplyRanked
	ReplyLegacy
	ReplyFollowUp
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyRanked:
		return "ranked"
	case ReplyLegacy:
		return "legacy"
	case ReplyFollowUp:
		return "follow_up"
	default:
		return "malformed"
	}
}

// LegacyEntry is one ordinal-addressed entry of the older reply shape.
type LegacyEntry struct {
	Index     int
	Score     *float64
	Reasoning string
}

// Reply is an oracle reply decoded once at the parsing boundary.
type Reply struct {
	Kind    ReplyKind
	Summary string

	Ranking    []model.RankingEntry // ReplyRanked, ordered by rank
	KeyMetrics []string             // ReplyRanked, nil when absent
	Legacy     []LegacyEntry        // ReplyLegacy, in reply order
}

var fencedObject = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*\\})\\s*```")

// DecodeReply classifies raw oracle output. Follow-up replies are always
// ReplyFollowUp. An initial reply is ReplyRanked when it carries a "ranking"
// key, ReplyLegacy when it has a summary but no ranking, and ReplyMalformed
// otherwise, in which case Summary holds the raw text.
func DecodeReply(raw string, followUp bool) Reply {
	text := strings.TrimSpace(raw)
	obj, isObject := extractObject(text)

	if followUp {
		summary := text
		if isObject {
			if s := stringValue(obj["summary"]); s != "" {
				summary = s
			}
		}
		return Reply{Kind: ReplyFollowUp, Summary: summary}
	}

	if !isObject {
		return Reply{Kind: ReplyMalformed, Summary: text}
	}
	summary := stringValue(obj["summary"])
	if summary == "" {
		return Reply{Kind: ReplyMalformed, Summary: text}
	}

	if ranking, ok := obj["ranking"]; ok {
		return Reply{
			Kind:       ReplyRanked,
			Summary:    summary,
			Ranking:    decodeRanking(ranking),
			KeyMetrics: decodeStrings(obj["key_metrics"]),
		}
	}
	return Reply{Kind: ReplyLegacy, Summary: summary, Legacy: decodeLegacy(obj["teams"])}
}

// extractObject finds a JSON object in text: the whole text, a fenced code
// block, or the outermost braces.
func extractObject(text string) (map[string]json.RawMessage, bool) {
	candidates := []string{text}
	if m := fencedObject.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}
	for _, c := range candidates {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(c), &obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

func decodeRanking(raw json.RawMessage) []model.RankingEntry {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]model.RankingEntry, 0, len(items))
	for _, it := range items {
		team, ok := positiveInt(firstOf(it, "team_number", "team"))
		if !ok {
			continue
		}
		rank, _ := positiveInt(it["rank"])
		score, _ := model.ToFloat(it["score"])
		out = append(out, model.RankingEntry{
			TeamNumber:  team,
			Rank:        rank,
			Score:       score,
			BriefReason: textOf(firstOf(it, "brief_reason", "reason", "reasoning")),
		})
	}
	// Entries without a usable rank keep their relative order after ranked ones.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Rank, out[j].Rank
		if a == 0 || b == 0 {
			return a != 0 && b == 0
		}
		return a < b
	})
	return out
}

func decodeLegacy(raw json.RawMessage) []LegacyEntry {
	if raw == nil {
		return nil
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]LegacyEntry, 0, len(items))
	for _, it := range items {
		idx, ok := positiveInt(firstOf(it, "index", "team_index"))
		if !ok {
			continue
		}
		e := LegacyEntry{Index: idx, Reasoning: textOf(firstOf(it, "reasoning", "reason", "brief_reason"))}
		if score, ok := model.ToFloat(it["score"]); ok {
			e.Score = &score
		}
		out = append(out, e)
	}
	return out
}

func decodeStrings(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := textOf(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringValue(raw json.RawMessage) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func textOf(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func positiveInt(v any) (int, bool) {
	f, ok := model.ToFloat(v)
	if !ok || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
