package repository

import (
	"time"

	"github.com/okian/draftrank/pkg/logger"
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithReloadInterval enables periodic checks of the dataset file. The file is
// parsed again only when its modification time changes.
func WithReloadInterval(interval time.Duration) Option {
	return func(s *FileStore) {
		if interval > 0 {
			s.reloadInterval = interval
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}
