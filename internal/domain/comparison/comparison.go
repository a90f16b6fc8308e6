// Package comparison orchestrates one ranking request: validation, data
// preparation, budgeting, the oracle call, reply parsing and enrichment.
package comparison

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/okian/draftrank/internal/domain/cache"
	"github.com/okian/draftrank/internal/domain/extraction"
	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/optimize"
	"github.com/okian/draftrank/internal/domain/prompt"
	"github.com/okian/draftrank/internal/domain/teamdata"
	"github.com/okian/draftrank/pkg/logger"
	"github.com/okian/draftrank/pkg/metrics"
)

const (
	minTeams       = 2
	charsPerToken  = 4
	placeholderKey = "rank"
)

// Oracle is the external text-generation service. With expectJSON the reply
// should be a JSON object; otherwise free text is acceptable.
type Oracle interface {
	Invoke(ctx context.Context, messages []model.Message, expectJSON bool) (string, error)
}

// State is a step of the request state machine.
type State string

// Request states.
const (
	StateValidating State = "validating"
	StatePreparing  State = "preparing"
	StateBudgeting  State = "budgeting"
	StateInvoking   State = "invoking"
	StateParsing    State = "parsing"
	StateEnriching  State = "enriching"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Request is one comparison or follow-up request.
type Request struct {
	Requester    int              `json:"requester,omitempty"`
	PickPosition int              `json:"pick_position"`
	TeamNumbers  []int            `json:"team_numbers"`
	Priorities   []model.Priority `json:"priorities,omitempty"`
	Excluded     []int            `json:"excluded,omitempty"`
	Question     string           `json:"question,omitempty"`
	History      []model.ChatTurn `json:"history,omitempty"`
	Batch        *bool            `json:"batch,omitempty"`
}

// FollowUp reports whether the request asks a follow-up question.
func (r Request) FollowUp() bool {
	return strings.TrimSpace(r.Question) != ""
}

// Teams returns the distinct requested teams minus the excluded ones, in
// request order.
func (r Request) Teams() []int {
	excluded := make(map[int]struct{}, len(r.Excluded))
	for _, n := range r.Excluded {
		excluded[n] = struct{}{}
	}
	var out []int
	for _, n := range teamdata.Distinct(r.TeamNumbers) {
		if _, skip := excluded[n]; !skip {
			out = append(out, n)
		}
	}
	return out
}

// Fingerprint returns the cache key of the request.
func (r Request) Fingerprint() string {
	teams := r.Teams()
	parts := make([]string, len(teams))
	for i, n := range teams {
		parts[i] = strconv.Itoa(n)
	}
	return optimize.Fingerprint(optimize.FingerprintInput{
		Requester:    r.Requester,
		PickPosition: r.PickPosition,
		Priorities:   r.Priorities,
		Excluded:     r.Excluded,
		TeamCount:    len(teams),
		Extra:        map[string]string{"teams": strings.Join(parts, ",")},
	})
}

// Service runs comparison requests. Apart from the optional cache it holds
// no cross-request state and is safe for concurrent use.
type Service struct {
	teams     *teamdata.Service
	oracle    Oracle
	extractor *extraction.Extractor
	optimizer *optimize.Optimizer
	cache     cache.Store
	logger    logger.Logger

	tokenCeiling      int
	compact           bool
	narrativeFallback bool
	newID             func() string
}

// New creates a Service.
func New(teams *teamdata.Service, oracle Oracle, opts ...Option) *Service {
	s := &Service{
		teams:             teams,
		oracle:            oracle,
		extractor:         extraction.New(),
		optimizer:         optimize.New(),
		logger:            logger.Nop(),
		tokenCeiling:      optimize.TokenCeiling,
		compact:           true,
		narrativeFallback: true,
		newID:             uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan returns the processing plan and usage estimate for a workload.
func (s *Service) Plan(teamCount, priorityCount int, override *bool) (model.ProcessingPlan, model.UsageEstimate) {
	plan := optimize.PlanStrategy(teamCount, priorityCount, override)
	metrics.RecordBatchDecision(string(plan.Source), plan.UseBatching)
	return plan, optimize.EstimateTokenUsage(teamCount, priorityCount, s.compact, false)
}

// Compare runs one request to completion. Follow-ups return nil OrderedTeams.
func (s *Service) Compare(ctx context.Context, req Request) (model.ComparisonResult, error) {
	start := time.Now()
	id := s.newID()
	ctx = logger.WithRequestID(ctx, id)

	res, err := s.run(ctx, id, req)
	metrics.RecordComparisonDuration(float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.enter(ctx, StateFailed, logger.Error(err))
		metrics.RecordComparison(outcomeOf(err))
		return model.ComparisonResult{}, err
	}
	metrics.RecordComparison("ok")
	return res, nil
}

func (s *Service) run(ctx context.Context, id string, req Request) (model.ComparisonResult, error) {
	s.enter(ctx, StateValidating)
	teams, err := validate(req)
	if err != nil {
		return model.ComparisonResult{}, err
	}

	followUp := req.FollowUp()
	var key string
	if s.cache != nil && !followUp {
		key = req.Fingerprint()
		switch l := s.cache.Get(ctx, key); l.State {
		case cache.Ready:
			s.logger.Debug(ctx, "serving cached comparison", logger.String("fingerprint", key))
			res := l.Result
			res.RequestID = id
			return res, nil
		case cache.InProgress:
			return model.ComparisonResult{}, fmt.Errorf("fingerprint %s: %w", key, cache.ErrInProgress)
		}
		token, owned := s.cache.MarkInProgress(ctx, key)
		if !owned {
			return model.ComparisonResult{}, fmt.Errorf("fingerprint %s: %w", key, cache.ErrInProgress)
		}
		finished := false
		defer func() {
			if !finished {
				s.cache.Release(ctx, key, token)
			}
		}()
		res, err := s.compute(ctx, id, req, teams)
		if err != nil {
			return model.ComparisonResult{}, err
		}
		finished = true
		if !s.cache.Store(ctx, key, token, res) {
			s.logger.Debug(ctx, "sentinel taken over, result not cached", logger.String("fingerprint", key))
		}
		return res, nil
	}
	return s.compute(ctx, id, req, teams)
}

func (s *Service) compute(ctx context.Context, id string, req Request, teams []int) (model.ComparisonResult, error) {
	followUp := req.FollowUp()

	s.enter(ctx, StatePreparing, logger.Int("teams", len(teams)))
	records, index, err := s.teams.Prepare(ctx, teams)
	if err != nil {
		return model.ComparisonResult{}, err
	}

	s.enter(ctx, StateBudgeting)
	plan, _ := s.Plan(len(records), len(req.Priorities), req.Batch)
	usage := optimize.EstimateTokenUsage(len(records), len(req.Priorities), s.compact, followUp)
	discovered := s.extractor.ExtractComparisonStats(records, nil)

	condensed := s.optimizer.Condense(records)
	msgs, err := prompt.BuildMessages(prompt.Input{
		PickPosition:    req.PickPosition,
		Teams:           condensed,
		Index:           index,
		Priorities:      req.Priorities,
		AvailableFields: discovered.Metrics,
		Compact:         s.compact,
		Question:        req.Question,
		History:         req.History,
	})
	if err != nil {
		return model.ComparisonResult{}, fmt.Errorf("build prompt: %w", err)
	}
	estimated := EstimatePromptTokens(msgs) + usage.OutputTokens
	metrics.RecordEstimatedTokens(estimated)
	if estimated > s.tokenCeiling {
		return model.ComparisonResult{}, &BudgetExceededError{Estimated: estimated, Limit: s.tokenCeiling}
	}

	s.enter(ctx, StateInvoking, logger.Int("estimated_tokens", estimated))
	raw, err := s.oracle.Invoke(ctx, msgs, !followUp)
	if err != nil {
		return model.ComparisonResult{}, &OracleTransportError{Err: err}
	}

	s.enter(ctx, StateParsing)
	reply := DecodeReply(raw, followUp)
	metrics.RecordReplyShape(reply.Kind.String())

	res := model.ComparisonResult{
		RequestID: id,
		Summary:   reply.Summary,
		Plan:      plan,
		Usage:     usage,
	}
	switch reply.Kind {
	case ReplyRanked:
		res.OrderedTeams = applyRanking(records, reply.Ranking)
	case ReplyLegacy:
		res.OrderedTeams = applyLegacy(records, index, reply.Legacy)
	case ReplyFollowUp, ReplyMalformed:
		// A follow-up never alters the ranking; a malformed reply keeps only its text.
		if reply.Summary == "" {
			return model.ComparisonResult{}, &OracleFormatError{Reason: "empty reply"}
		}
	}
	if !followUp && len(res.OrderedTeams) == 0 {
		s.logger.Warn(ctx, "oracle reply unusable, falling back to weighted scores", logger.String("shape", reply.Kind.String()))
		metrics.RecordDegradedReply()
		res.OrderedTeams = s.fallback(records, condensed, req.Priorities)
		res.Degraded = true
	}

	s.enter(ctx, StateEnriching)
	res.ComparisonData = discovered
	if reply.Kind == ReplyRanked {
		res.ComparisonData = s.suggestedStats(ctx, records, reply, discovered)
	}

	s.enter(ctx, StateDone, logger.Int("ordered", len(res.OrderedTeams)), logger.Bool("degraded", res.Degraded))
	return res, nil
}

// suggestedStats builds the table from the oracle's key metrics, falling back
// to metric names mined from the summary and finally to automatic discovery.
func (s *Service) suggestedStats(ctx context.Context, records []model.TeamRecord, reply Reply, discovered model.ComparisonStatistics) model.ComparisonStatistics {
	if !isPlaceholder(reply.KeyMetrics) {
		if stats := s.extractor.ExtractComparisonStats(records, reply.KeyMetrics); len(stats.Metrics) > 0 {
			return stats
		}
		return discovered
	}
	if !s.narrativeFallback {
		return discovered
	}
	mined := s.extractor.ExtractMetricsFromNarrative(reply.Summary, records)
	if len(mined) == 0 {
		return discovered
	}
	s.logger.Debug(ctx, "using metrics mined from summary", logger.Any("metrics", mined))
	if stats := s.extractor.ExtractComparisonStats(records, mined); len(stats.Metrics) > 0 {
		return stats
	}
	return discovered
}

func (s *Service) enter(ctx context.Context, state State, fields ...logger.Field) {
	fields = append(fields, logger.String("state", string(state)))
	if state == StateFailed {
		s.logger.Error(ctx, "comparison failed", fields...)
		return
	}
	s.logger.Debug(ctx, "comparison state", fields...)
}

func validate(req Request) ([]int, error) {
	teams := req.Teams()
	if len(teams) < minTeams {
		return nil, fmt.Errorf("%w: need at least %d distinct teams, got %d", ErrValidation, minTeams, len(teams))
	}
	for _, n := range teams {
		if n < 1 {
			return nil, fmt.Errorf("%w: team number %d is not positive", ErrValidation, n)
		}
	}
	for _, p := range req.Priorities {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("%w: priority without id", ErrValidation)
		}
		if p.Weight <= 0 || math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) {
			return nil, fmt.Errorf("%w: priority %q has invalid weight", ErrValidation, p.ID)
		}
	}
	return teams, nil
}

// EstimatePromptTokens approximates the token count of a conversation at
// four characters per token.
func EstimatePromptTokens(msgs []model.Message) int {
	chars := 0
	for _, m := range msgs {
		chars += utf8.RuneCountInString(m.Content)
	}
	return (chars + charsPerToken - 1) / charsPerToken
}

func applyRanking(records []model.TeamRecord, entries []model.RankingEntry) []model.RankedTeam {
	byNumber := make(map[int]model.TeamRecord, len(records))
	for _, r := range records {
		byNumber[r.TeamNumber] = r
	}
	out := make([]model.RankedTeam, 0, len(entries))
	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		r, ok := byNumber[e.TeamNumber]
		if !ok {
			continue
		}
		if _, dup := seen[e.TeamNumber]; dup {
			continue
		}
		seen[e.TeamNumber] = struct{}{}
		rank, score := len(out)+1, e.Score
		out = append(out, model.RankedTeam{TeamRecord: r.Clone(), Rank: &rank, Score: &score, Reasoning: e.BriefReason})
	}
	return out
}

func applyLegacy(records []model.TeamRecord, index model.IndexMap, entries []LegacyEntry) []model.RankedTeam {
	byNumber := make(map[int]model.TeamRecord, len(records))
	for _, r := range records {
		byNumber[r.TeamNumber] = r
	}
	out := make([]model.RankedTeam, 0, len(entries))
	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		team, ok := index.Lookup(e.Index)
		if !ok {
			continue
		}
		r, ok := byNumber[team]
		if !ok {
			continue
		}
		if _, dup := seen[team]; dup {
			continue
		}
		seen[team] = struct{}{}
		rank := len(out) + 1
		out = append(out, model.RankedTeam{TeamRecord: r.Clone(), Rank: &rank, Score: e.Score, Reasoning: e.Reasoning})
	}
	return out
}

// fallback returns the teams without ranks. With priorities they carry the
// local weighted score and are ordered by it, highest first; otherwise they
// keep request order.
func (s *Service) fallback(records []model.TeamRecord, condensed []optimize.CondensedRecord, priorities []model.Priority) []model.RankedTeam {
	out := make([]model.RankedTeam, len(records))
	for i, r := range records {
		out[i] = model.RankedTeam{TeamRecord: r.Clone()}
		if len(priorities) > 0 {
			score := s.optimizer.CalculateWeightedScore(condensed[i], priorities)
			out[i].Score = &score
		}
	}
	if len(priorities) > 0 {
		sort.SliceStable(out, func(i, j int) bool { return *out[i].Score > *out[j].Score })
	}
	return out
}

func isPlaceholder(keyMetrics []string) bool {
	return len(keyMetrics) == 0 ||
		(len(keyMetrics) == 1 && strings.EqualFold(strings.TrimSpace(keyMetrics[0]), placeholderKey))
}

func outcomeOf(err error) string {
	var missing *teamdata.MissingTeamsError
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.As(err, &missing):
		return "missing_teams"
	case errors.Is(err, ErrBudgetExceeded):
		return "over_budget"
	case errors.Is(err, cache.ErrInProgress):
		return "in_progress"
	case errors.Is(err, ErrOracleFormat):
		return "bad_reply"
	case errors.Is(err, ErrOracleTransport):
		return "oracle_error"
	default:
		return "error"
	}
}
