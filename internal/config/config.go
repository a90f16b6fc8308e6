// Package config defines service configuration structures and loading hooks.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatasetPath points at the JSON team dataset.
	DatasetPath string `koanf:"dataset_path"`

	// DatasetReloadSeconds sets how often the dataset file is checked for
	// changes. Zero disables reloading.
	DatasetReloadSeconds int `koanf:"dataset_reload_seconds"`

	// VocabularyPath optionally replaces the embedded field vocabulary.
	VocabularyPath string `koanf:"vocabulary_path"`

	// TokenCeiling is the per-request token budget.
	TokenCeiling int `koanf:"token_ceiling"`

	// CompactPayload sends team data as compact JSON.
	CompactPayload bool `koanf:"compact_payload"`

	// NarrativeFallback mines metric names from the summary when the oracle
	// suggests none.
	NarrativeFallback bool `koanf:"narrative_fallback"`

	// CacheMaxEntries bounds stored results. Zero means unbounded.
	CacheMaxEntries int `koanf:"cache_max_entries"`

	// CacheInProgressTTLSeconds is how long an in-progress marker blocks
	// identical requests before it may be taken over.
	CacheInProgressTTLSeconds int `koanf:"cache_in_progress_ttl_seconds"`

	// Oracle settings for the OpenAI-compatible completion endpoint.
	OracleBaseURL           string  `koanf:"oracle_base_url"`
	OracleAPIKey            string  `koanf:"oracle_api_key"`
	OracleModel             string  `koanf:"oracle_model"`
	OracleTimeoutSeconds    int     `koanf:"oracle_timeout_seconds"`
	OracleRequestsPerMinute int     `koanf:"oracle_requests_per_minute"`
	OracleMaxOutputTokens   int     `koanf:"oracle_max_output_tokens"`
	OracleTemperature       float64 `koanf:"oracle_temperature"`

	// CORSAllowOrigins lists origins allowed to call the API.
	CORSAllowOrigins []string `koanf:"cors_allow_origins"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":9080",
		DatasetPath:               "data/teams.json",
		TokenCeiling:              100_000,
		CompactPayload:            true,
		NarrativeFallback:         true,
		CacheMaxEntries:           1_000,
		CacheInProgressTTLSeconds: 300,
		OracleBaseURL:             "https://api.openai.com/v1",
		OracleModel:               "gpt-4o-mini",
		OracleTimeoutSeconds:      120,
		OracleRequestsPerMinute:   60,
		OracleMaxOutputTokens:     2_000,
		OracleTemperature:         0.2,
	}
}

// OracleTimeout returns the oracle call timeout.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutSeconds) * time.Second
}

// CacheInProgressTTL returns the in-progress marker lifetime.
func (c *Config) CacheInProgressTTL() time.Duration {
	return time.Duration(c.CacheInProgressTTLSeconds) * time.Second
}

// DatasetReloadInterval returns the dataset reload interval.
func (c *Config) DatasetReloadInterval() time.Duration {
	return time.Duration(c.DatasetReloadSeconds) * time.Second
}
