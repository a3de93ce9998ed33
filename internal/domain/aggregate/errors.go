package aggregate

import "errors"

// ErrInvalidGranularity is returned for a trend granularity other than daily
// or weekly.
var ErrInvalidGranularity = errors.New("invalid granularity")
