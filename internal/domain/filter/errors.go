package filter

import "errors"

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRange  = errors.New("invalid date range")
)
