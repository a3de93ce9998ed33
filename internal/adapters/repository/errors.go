package repository

import "errors"

// Sentinel kinds for settings persistence errors.
var (
	ErrCorrupt = errors.New("stored settings are corrupt")
	ErrClosed  = errors.New("settings store closed")
)
