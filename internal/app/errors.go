package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("refresh queue full")
	ErrNotFound     = errors.New("member not found")
	ErrMemberExists = errors.New("member already exists")
)
