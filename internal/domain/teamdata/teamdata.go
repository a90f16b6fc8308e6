// Package teamdata loads and orders team records for a comparison request.
package teamdata

import (
	"context"
	"fmt"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/pkg/logger"
)

// Source provides the full dataset of team records.
type Source interface {
	AllTeamRecords(ctx context.Context) ([]model.TeamRecord, error)
}

// Service prepares ordered team records. It holds no request state.
type Service struct {
	source Source
	logger logger.Logger
}

// New creates a Service reading from source.
func New(source Source, opts ...Option) *Service {
	s := &Service{source: source, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare returns the records for teamNumbers in the requested order along
// with the matching index map. Any absent team fails the whole call with a
// *MissingTeamsError. Repeated numbers are collapsed to their first position.
func (s *Service) Prepare(ctx context.Context, teamNumbers []int) ([]model.TeamRecord, model.IndexMap, error) {
	requested := distinct(teamNumbers)

	all, err := s.source.AllTeamRecords(ctx)
	if err != nil {
		return nil, model.IndexMap{}, fmt.Errorf("load dataset: %w", err)
	}

	byNumber := make(map[int]model.TeamRecord, len(requested))
	wanted := make(map[int]struct{}, len(requested))
	for _, n := range requested {
		wanted[n] = struct{}{}
	}
	for _, r := range all {
		if _, ok := wanted[r.TeamNumber]; !ok {
			continue
		}
		if _, dup := byNumber[r.TeamNumber]; !dup {
			byNumber[r.TeamNumber] = r
		}
	}

	var missing []int
	records := make([]model.TeamRecord, 0, len(requested))
	for _, n := range requested {
		r, ok := byNumber[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		records = append(records, r.Clone())
	}
	if len(missing) > 0 {
		s.logger.Warn(ctx, "requested teams missing from dataset", logger.Any("missing", missing))
		return nil, model.IndexMap{}, &MissingTeamsError{Missing: missing}
	}

	return records, model.NewIndexMap(requested), nil
}

// distinct drops repeated numbers, keeping first-seen order.
func distinct(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, n := range in {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Distinct is exported for callers validating requests before preparation.
func Distinct(in []int) []int { return distinct(in) }
