package optimize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/okian/draftrank/internal/domain/model"
)

// FingerprintInput is the request data that identifies a comparison result.
type FingerprintInput struct {
	Requester    int
	PickPosition int
	Priorities   []model.Priority
	Excluded     []int
	TeamCount    int
	Extra        map[string]string
}

type canonicalPriority struct {
	ID     string `json:"id"`
	Weight string `json:"weight"`
	Reason string `json:"reason,omitempty"`
}

// canonicalRequest holds only strings and ints so encoding it cannot fail.
type canonicalRequest struct {
	Requester    int                 `json:"requester"`
	PickPosition int                 `json:"pick_position"`
	Priorities   []canonicalPriority `json:"priorities"`
	Excluded     []int               `json:"excluded"`
	TeamCount    int                 `json:"team_count"`
	Extra        map[string]string   `json:"extra,omitempty"`
}

// Fingerprint returns a SHA-256 hex digest of the normalized request.
// Priority and excluded-team order do not affect the result. Weights are
// written in their shortest decimal form, so NaN and infinities hash too.
func Fingerprint(in FingerprintInput) string {
	priorities := append([]model.Priority(nil), in.Priorities...)
	sort.SliceStable(priorities, func(i, j int) bool {
		a, b := priorities[i], priorities[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		return a.Reason < b.Reason
	})
	canonical := make([]canonicalPriority, 0, len(priorities))
	for _, p := range priorities {
		canonical = append(canonical, canonicalPriority{
			ID:     p.ID,
			Weight: strconv.FormatFloat(p.Weight, 'g', -1, 64),
			Reason: p.Reason,
		})
	}
	excluded := append([]int{}, in.Excluded...)
	sort.Ints(excluded)

	// encoding/json writes map keys in sorted order.
	data, err := json.Marshal(canonicalRequest{
		Requester:    in.Requester,
		PickPosition: in.PickPosition,
		Priorities:   canonical,
		Excluded:     excluded,
		TeamCount:    in.TeamCount,
		Extra:        in.Extra,
	})
	if err != nil {
		panic("optimize: encode fingerprint: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
