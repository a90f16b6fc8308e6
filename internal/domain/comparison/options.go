package comparison

import (
	"github.com/okian/draftrank/internal/domain/cache"
	"github.com/okian/draftrank/internal/domain/extraction"
	"github.com/okian/draftrank/internal/domain/optimize"
	"github.com/okian/draftrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithExtractor sets the metrics extractor.
func WithExtractor(e *extraction.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithOptimizer sets the payload optimizer.
func WithOptimizer(o *optimize.Optimizer) Option {
	return func(s *Service) {
		if o != nil {
			s.optimizer = o
		}
	}
}

// WithCache enables fingerprint caching of initial comparisons.
func WithCache(store cache.Store) Option {
	return func(s *Service) {
		s.cache = store
	}
}

// WithTokenCeiling sets the hard prompt budget in tokens.
func WithTokenCeiling(tokens int) Option {
	return func(s *Service) {
		if tokens > 0 {
			s.tokenCeiling = tokens
		}
	}
}

// WithCompactPayload selects compact (true) or indented (false) team payloads.
func WithCompactPayload(compact bool) Option {
	return func(s *Service) {
		s.compact = compact
	}
}

// WithNarrativeFallback enables or disables mining the summary for metric
// names when the oracle suggests none.
func WithNarrativeFallback(enabled bool) Option {
	return func(s *Service) {
		s.narrativeFallback = enabled
	}
}

// WithIDGenerator replaces the request id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}
