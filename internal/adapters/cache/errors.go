package cache

import "errors"

var (
	// ErrUnavailable is returned when a cache backend cannot be reached.
	ErrUnavailable = errors.New("cache backend unavailable")
	// ErrCorrupt is returned when a cached payload cannot be decoded.
	ErrCorrupt = errors.New("cached payload corrupt")
)
