// Package prompt builds the oracle conversation for a comparison.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/optimize"
)

// MaxListedFields caps the available field names offered for key_metrics.
const MaxListedFields = 15

// Input carries everything needed to build one conversation.
type Input struct {
	PickPosition    int
	Teams           []optimize.CondensedRecord
	Index           model.IndexMap
	Priorities      []model.Priority
	AvailableFields []string // most relevant first
	Compact         bool

	// Question is set for follow-ups; History holds the earlier turns.
	Question string
	History  []model.ChatTurn
}

// FollowUp reports whether the input describes a follow-up conversation.
func (in Input) FollowUp() bool {
	return strings.TrimSpace(in.Question) != ""
}

// SystemPrompt returns the fixed instructions for an initial analysis.
func SystemPrompt(pickPosition, teamCount int) string {
	return fmt.Sprintf(systemTemplate, pickPosition, teamCount)
}

// BuildMessages returns the conversation for in. An initial analysis is one
// system and one user message. A follow-up replays the original payload and
// every earlier turn, then asks the new question without requesting a ranking.
func BuildMessages(in Input) ([]model.Message, error) {
	payload, err := UserPayload(in)
	if err != nil {
		return nil, err
	}

	system := SystemPrompt(in.PickPosition, len(in.Teams))
	if !in.FollowUp() {
		return []model.Message{
			{Role: model.RoleSystem, Content: system},
			{Role: model.RoleUser, Content: payload + "\n\n" + initialInstruction},
		}, nil
	}

	msgs := make([]model.Message, 0, 3+2*len(in.History))
	msgs = append(msgs,
		model.Message{Role: model.RoleSystem, Content: system + followUpSystemAddendum},
		model.Message{Role: model.RoleUser, Content: payload},
	)
	for _, turn := range in.History {
		msgs = append(msgs,
			model.Message{Role: model.RoleUser, Content: FollowUpTag + turn.Question},
			model.Message{Role: model.RoleAssistant, Content: turn.Answer},
		)
	}
	msgs = append(msgs, model.Message{
		Role:    model.RoleUser,
		Content: FollowUpTag + strings.TrimSpace(in.Question) + "\n\n" + followUpInstruction,
	})
	return msgs, nil
}

// UserPayload renders the team data, index map, priorities and field list.
func UserPayload(in Input) (string, error) {
	flat := make([]map[string]any, 0, len(in.Teams))
	for _, t := range in.Teams {
		flat = append(flat, t.Flat())
	}

	teams, err := marshal(flat, in.Compact)
	if err != nil {
		return "", fmt.Errorf("encode team data: %w", err)
	}
	index, err := marshal(in.Index.Entries(), in.Compact)
	if err != nil {
		return "", fmt.Errorf("encode index map: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Compare these %d teams for draft pick %d.\n\n", len(in.Teams), in.PickPosition)
	b.WriteString("TEAM DATA:\n")
	b.Write(teams)
	b.WriteString("\n\nINDEX MAP (ordinal -> team_number):\n")
	b.Write(index)
	b.WriteString("\n\nPRIORITIES:\n")
	if len(in.Priorities) == 0 {
		b.WriteString("- none given, use overall performance\n")
	}
	for _, p := range in.Priorities {
		fmt.Fprintf(&b, "- %s (weight %.2f)", p.ID, p.Weight)
		if r := strings.TrimSpace(p.Reason); r != "" {
			fmt.Fprintf(&b, ": %s", r)
		}
		b.WriteByte('\n')
	}
	if fields := listedFields(in.AvailableFields); len(fields) > 0 {
		b.WriteString("\nAVAILABLE FIELDS FOR key_metrics:\n")
		b.WriteString(strings.Join(fields, ", "))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func listedFields(fields []string) []string {
	out := make([]string, 0, MaxListedFields)
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
		if len(out) == MaxListedFields {
			break
		}
	}
	return out
}

func marshal(v any, compact bool) ([]byte, error) {
	if compact {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
