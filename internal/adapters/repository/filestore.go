package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/pkg/logger"
	"github.com/okian/draftrank/pkg/metrics"
)

var _ Store = (*FileStore)(nil)

// snapshot is an immutable view of one successful load.
type snapshot struct {
	records  []model.TeamRecord
	byNumber map[int]int
	modTime  time.Time
	loadedAt time.Time
}

// FileStore serves a JSON dataset file. Reads go to an immutable snapshot;
// a reload swaps the snapshot atomically and a failed reload keeps the old one.
type FileStore struct {
	path           string
	reloadInterval time.Duration
	logger         logger.Logger

	snapshot atomic.Pointer[snapshot]
	reloadMu sync.Mutex

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewFileStore loads path and, with WithReloadInterval, keeps watching it
// until ctx is done or Close is called.
func NewFileStore(ctx context.Context, path string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		logger:   logger.Nop(),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	if s.reloadInterval > 0 {
		s.startReloader(ctx)
	}
	return s, nil
}

// Reload parses the file if it changed since the last successful load.
func (s *FileStore) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("stat dataset: %w", err)
	}
	if cur := s.snapshot.Load(); cur != nil && info.ModTime().Equal(cur.modTime) {
		return nil
	}

	start := time.Now()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	records, err := Decode(data)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrEmptyDataset
	}

	snap := &snapshot{
		records:  records,
		byNumber: make(map[int]int, len(records)),
		modTime:  info.ModTime(),
		loadedAt: time.Now(),
	}
	for i, r := range records {
		snap.byNumber[r.TeamNumber] = i
	}
	s.snapshot.Store(snap)

	took := time.Since(start)
	metrics.UpdateDatasetTeams(len(records))
	metrics.RecordDatasetLoadDuration(float64(took.Milliseconds()))
	s.logger.Info(ctx, "dataset loaded",
		logger.String("path", s.path),
		logger.Int("teams", len(records)),
		logger.Duration("took", took),
	)
	return nil
}

func (s *FileStore) startReloader(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.reloadInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if err := s.Reload(ctx); err != nil {
					metrics.RecordErrorByComponent("repository", "reload")
					s.logger.Error(ctx, "dataset reload failed, keeping previous snapshot", logger.Error(err))
				}
			}
		}
	}()
}

// Close stops the background reloader.
func (s *FileStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// AllTeamRecords returns the records of the current snapshot ordered by team
// number. Callers must not modify the returned records.
func (s *FileStore) AllTeamRecords(ctx context.Context) ([]model.TeamRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.snapshot.Load()
	out := make([]model.TeamRecord, len(snap.records))
	copy(out, snap.records)
	return out, nil
}

// Team returns a copy of one record.
func (s *FileStore) Team(ctx context.Context, teamNumber int) (model.TeamRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.TeamRecord{}, err
	}
	snap := s.snapshot.Load()
	i, ok := snap.byNumber[teamNumber]
	if !ok {
		return model.TeamRecord{}, fmt.Errorf("team %d: %w", teamNumber, ErrNotFound)
	}
	return snap.records[i].Clone(), nil
}

// Count returns the number of teams in the current snapshot.
func (s *FileStore) Count(_ context.Context) int {
	return len(s.snapshot.Load().records)
}

// LoadedAt returns when the current snapshot was published.
func (s *FileStore) LoadedAt() time.Time {
	return s.snapshot.Load().loadedAt
}
