package api

import (
	"time"

	"github.com/okian/kpiboard/pkg/logger"
)

type options struct {
	logger logger.Logger
	now    func() time.Time
}

// Option configures the Server.
type Option func(*options)

// WithLogger sets the logger handlers report failures to.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces the wall clock used for export file names.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
