package service

import (
	"time"

	"github.com/okian/kpiboard/internal/adapters/repository"
	"github.com/okian/kpiboard/internal/adapters/source"
	"github.com/okian/kpiboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the live record source. The fixture set is used when none
// is given and as the fallback when the source fails.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithSettingsStore sets where benchmark, role and alias changes persist.
func WithSettingsStore(store repository.SettingsStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRefreshInterval sets the periodic refresh period. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithQueueSize sets the maximum number of pending refresh jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobTimeout bounds a single queued refresh.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithTopN sets how many members each role ranking keeps.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithLocation sets the time zone for "today" and preset windows.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
