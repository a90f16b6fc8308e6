// Package service wires the dataset, cache, oracle and ranking engine into
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/draftrank/internal/adapters/oracle"
	repository "github.com/okian/draftrank/internal/adapters/repository"
	"github.com/okian/draftrank/internal/domain/cache"
	"github.com/okian/draftrank/internal/domain/comparison"
	"github.com/okian/draftrank/internal/domain/extraction"
	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/internal/domain/optimize"
	"github.com/okian/draftrank/internal/domain/teamdata"
	"github.com/okian/draftrank/internal/domain/vocab"
	"github.com/okian/draftrank/pkg/logger"
	"github.com/okian/draftrank/pkg/metrics"
)

// Service implements the API dependencies for the ranking engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.FileStore
	cache    cache.Store
	oracle   comparison.Oracle
	comparer *comparison.Service

	// Configuration
	datasetPath           string
	datasetReload         time.Duration
	vocabularyPath        string
	tokenCeiling          int
	compact               bool
	narrativeFallback     bool
	cacheMaxEntries       int
	cacheTTL              time.Duration
	oracleSettings        OracleSettings
	systemMetricsInterval time.Duration

	// State
	started   bool
	startedAt time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tokenCeiling:          optimize.TokenCeiling,
		compact:               true,
		narrativeFallback:     true,
		cacheMaxEntries:       1_000,
		cacheTTL:              5 * time.Minute,
		systemMetricsInterval: 5 * time.Second,
		logger:                nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the dataset and builds the ranking pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.datasetPath == "" {
		return ErrNoDataset
	}

	s.logger.Info(ctx, "starting ranking service...")

	v := vocab.Default()
	if s.vocabularyPath != "" {
		loaded, err := vocab.LoadFile(s.vocabularyPath)
		if err != nil {
			return fmt.Errorf("load vocabulary: %w", err)
		}
		v = loaded
		s.logger.Info(ctx, "using vocabulary file", logger.String("path", s.vocabularyPath), logger.String("version", v.Version))
	}

	store, err := repository.NewFileStore(ctx, s.datasetPath,
		repository.WithReloadInterval(s.datasetReload),
		repository.WithLogger(s.logger.Named("repository")),
	)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}

	if s.oracle == nil {
		client, err := oracle.New(s.oracleSettings.BaseURL, s.oracleSettings.Model,
			oracle.WithAPIKey(s.oracleSettings.APIKey),
			oracle.WithTimeout(s.oracleSettings.Timeout),
			oracle.WithRequestsPerMinute(s.oracleSettings.RequestsPerMinute),
			oracle.WithMaxOutputTokens(s.oracleSettings.MaxOutputTokens),
			oracle.WithTemperature(s.oracleSettings.Temperature),
			oracle.WithLogger(s.logger.Named("oracle")),
		)
		if err != nil {
			_ = store.Close()
			return fmt.Errorf("create oracle client: %w", err)
		}
		s.oracle = client
	}

	s.store = store
	s.cache = cache.NewMemoryStore(
		cache.WithMaxEntries(s.cacheMaxEntries),
		cache.WithInProgressTTL(s.cacheTTL),
	)
	s.comparer = comparison.New(
		teamdata.New(store, teamdata.WithLogger(s.logger.Named("teamdata"))),
		s.oracle,
		comparison.WithLogger(s.logger.Named("comparison")),
		comparison.WithExtractor(extraction.New(extraction.WithVocabulary(v))),
		comparison.WithOptimizer(optimize.New(optimize.WithVocabulary(v))),
		comparison.WithCache(s.cache),
		comparison.WithTokenCeiling(s.tokenCeiling),
		comparison.WithCompactPayload(s.compact),
		comparison.WithNarrativeFallback(s.narrativeFallback),
	)

	s.stopCh = make(chan struct{})
	s.startSystemMetrics(ctx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "ranking service started",
		logger.Int("teams", store.Count(ctx)),
		logger.Int("tokenCeiling", s.tokenCeiling),
		logger.Int("cacheMaxEntries", s.cacheMaxEntries),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")

	close(s.stopCh)
	s.wg.Wait()

	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// startSystemMetrics refreshes runtime gauges until Stop or ctx is done.
func (s *Service) startSystemMetrics(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.systemMetricsInterval)
		defer ticker.Stop()

		var lastNumGC uint32
		for {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			metrics.UpdateSystemMemoryUsage(ms.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
			if ms.NumGC > lastNumGC {
				metrics.RecordSystemGCPauseTime(float64(ms.PauseNs[(ms.NumGC+255)%256]) / 1e6)
				lastNumGC = ms.NumGC
			}

			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Service) pipeline() (*comparison.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.comparer, nil
}

// Compare runs one comparison or follow-up request.
func (s *Service) Compare(ctx context.Context, req comparison.Request) (model.ComparisonResult, error) {
	c, err := s.pipeline()
	if err != nil {
		return model.ComparisonResult{}, err
	}
	return c.Compare(ctx, req)
}

// Plan reports the processing plan for a workload. It does not need the
// dataset and works before Start.
func (s *Service) Plan(teamCount, priorityCount int, override *bool) (model.ProcessingPlan, model.UsageEstimate) {
	if c, err := s.pipeline(); err == nil {
		return c.Plan(teamCount, priorityCount, override)
	}
	plan := optimize.PlanStrategy(teamCount, priorityCount, override)
	metrics.RecordBatchDecision(string(plan.Source), plan.UseBatching)
	return plan, optimize.EstimateTokenUsage(teamCount, priorityCount, s.compact, false)
}

// Evict drops a cached result by fingerprint.
func (s *Service) Evict(ctx context.Context, fingerprint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}
	return s.cache.Evict(ctx, fingerprint)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"tokenCeiling": s.tokenCeiling,
		"compact":      s.compact,
	}

	if s.started {
		cs := s.cache.Stats()
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
		stats["teams"] = s.store.Count(ctx)
		stats["datasetLoadedAt"] = s.store.LoadedAt().UTC().Format(time.RFC3339)
		stats["cache"] = cs

		metrics.UpdateCacheEntries(cs.Entries)
		metrics.UpdateDatasetTeams(s.store.Count(ctx))
	}

	return stats
}
