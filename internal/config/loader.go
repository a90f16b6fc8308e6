package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Env names.
const (
	EnvPrefix     = "RANKER_"
	EnvConfigFile = "RANKER_CONFIG"
)

var listKeys = map[string]struct{}{"cors_allow_origins": {}}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RANKER_CONFIG is set
//  3. env (prefix RANKER_)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// RANKER_TOKEN_CEILING -> token_ceiling (flat keys, underscores kept).
	// List values are comma separated.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if _, isList := listKeys[key]; isList {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TokenCeiling <= 0:
		return fmt.Errorf("%w: token_ceiling must be positive", ErrInvalidConfig)
	case c.CacheMaxEntries < 0:
		return fmt.Errorf("%w: cache_max_entries must not be negative", ErrInvalidConfig)
	case c.CacheInProgressTTLSeconds <= 0:
		return fmt.Errorf("%w: cache_in_progress_ttl_seconds must be positive", ErrInvalidConfig)
	case c.DatasetReloadSeconds < 0:
		return fmt.Errorf("%w: dataset_reload_seconds must not be negative", ErrInvalidConfig)
	case c.OracleTimeoutSeconds <= 0:
		return fmt.Errorf("%w: oracle_timeout_seconds must be positive", ErrInvalidConfig)
	case c.OracleRequestsPerMinute < 0:
		return fmt.Errorf("%w: oracle_requests_per_minute must not be negative", ErrInvalidConfig)
	case c.OracleMaxOutputTokens <= 0:
		return fmt.Errorf("%w: oracle_max_output_tokens must be positive", ErrInvalidConfig)
	case c.OracleTemperature < 0 || c.OracleTemperature > 2:
		return fmt.Errorf("%w: oracle_temperature must be within [0, 2]", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
