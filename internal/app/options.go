package service

import (
	"time"

	"github.com/okian/draftrank/internal/config"
	"github.com/okian/draftrank/internal/domain/comparison"
	"github.com/okian/draftrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// OracleSettings configures the HTTP oracle client built on Start.
type OracleSettings struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxOutputTokens   int
	Temperature       float64
}

// WithDatasetPath sets the JSON dataset file.
func WithDatasetPath(path string) Option {
	return func(s *Service) {
		s.datasetPath = path
	}
}

// WithDatasetReloadInterval enables periodic dataset reloads.
func WithDatasetReloadInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval >= 0 {
			s.datasetReload = interval
		}
	}
}

// WithVocabularyPath replaces the embedded vocabulary with a YAML file.
func WithVocabularyPath(path string) Option {
	return func(s *Service) {
		s.vocabularyPath = path
	}
}

// WithTokenCeiling sets the per-request token budget.
func WithTokenCeiling(tokens int) Option {
	return func(s *Service) {
		if tokens > 0 {
			s.tokenCeiling = tokens
		}
	}
}

// WithCompactPayload toggles compact team data encoding.
func WithCompactPayload(compact bool) Option {
	return func(s *Service) {
		s.compact = compact
	}
}

// WithNarrativeFallback toggles metric mining from the summary.
func WithNarrativeFallback(enabled bool) Option {
	return func(s *Service) {
		s.narrativeFallback = enabled
	}
}

// WithCacheMaxEntries bounds the result cache. Zero means unbounded.
func WithCacheMaxEntries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.cacheMaxEntries = n
		}
	}
}

// WithCacheInProgressTTL sets how long an in-progress marker is honoured.
func WithCacheInProgressTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithOracleSettings configures the HTTP oracle client.
func WithOracleSettings(o OracleSettings) Option {
	return func(s *Service) {
		s.oracleSettings = o
	}
}

// WithOracle injects an oracle, bypassing the HTTP client.
func WithOracle(o comparison.Oracle) Option {
	return func(s *Service) {
		if o != nil {
			s.oracle = o
		}
	}
}

// WithSystemMetricsInterval sets how often runtime gauges are refreshed.
func WithSystemMetricsInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.systemMetricsInterval = interval
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// FromConfig translates a loaded Config into service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithDatasetPath(cfg.DatasetPath),
		WithDatasetReloadInterval(cfg.DatasetReloadInterval()),
		WithVocabularyPath(cfg.VocabularyPath),
		WithTokenCeiling(cfg.TokenCeiling),
		WithCompactPayload(cfg.CompactPayload),
		WithNarrativeFallback(cfg.NarrativeFallback),
		WithCacheMaxEntries(cfg.CacheMaxEntries),
		WithCacheInProgressTTL(cfg.CacheInProgressTTL()),
		WithOracleSettings(OracleSettings{
			BaseURL:           cfg.OracleBaseURL,
			APIKey:            cfg.OracleAPIKey,
			Model:             cfg.OracleModel,
			Timeout:           cfg.OracleTimeout(),
			RequestsPerMinute: cfg.OracleRequestsPerMinute,
			MaxOutputTokens:   cfg.OracleMaxOutputTokens,
			Temperature:       cfg.OracleTemperature,
		}),
	}
}
